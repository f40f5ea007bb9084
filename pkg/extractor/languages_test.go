package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const javaSource = `package com.example;

public class UserService extends BaseService implements Auditable {
    private UserRepository repo;
    private int count, total;

    public UserService(UserRepository repo) {
        this.repo = repo;
    }

    public User findUser(String id, boolean active) {
        if (id == null || !active) {
            return null;
        }
        count++;
        return repo.findById(id);
    }

    private static void helper() {
        for (int i = 0; i < 3; i++) {
            validate();
        }
    }

    static class Entry {
        void touch() {}
    }
}
`

func TestJava(t *testing.T) {
	fm := extract(t, "UserService.java", javaSource)
	require.Len(t, fm.Classes, 2)

	c := fm.Classes[0]
	assert.Equal(t, "UserService", c.Name)
	assert.Equal(t, "com.example.UserService", c.QualifiedName)
	assert.Equal(t, []string{"BaseService"}, c.Inherits)
	assert.Equal(t, []string{"Auditable"}, c.Implements)
	assert.Equal(t, 3, c.FieldCount)
	assert.Equal(t, 3, c.MethodCount)
	assert.Equal(t, 6, c.Complexity)
	assert.Contains(t, c.Dependencies, "User")
	assert.Contains(t, c.Dependencies, "UserRepository")
	assert.NotContains(t, c.Dependencies, "String")
	assert.NotContains(t, c.Dependencies, "BaseService")

	ctor := methodByName(t, c, "UserService")
	assert.Equal(t, 1, ctor.Parameters)
	assert.Equal(t, []string{"repo"}, ctor.AccessedFields)
	assert.Empty(t, ctor.ReturnType)

	find := methodByName(t, c, "findUser")
	assert.Equal(t, 2, find.Parameters)
	assert.Equal(t, 3, find.Complexity)
	assert.Equal(t, "User", find.ReturnType)
	assert.True(t, find.IsPublic)
	assert.False(t, find.IsStatic)
	assert.Contains(t, find.CalledMethods, "repo.findById")
	assert.Contains(t, find.Tokens, "find")
	assert.Contains(t, find.Tokens, "active")

	helper := methodByName(t, c, "helper")
	assert.True(t, helper.IsStatic)
	assert.False(t, helper.IsPublic)
	assert.Equal(t, 2, helper.Complexity)
	assert.Equal(t, "void", helper.ReturnType)
	assert.Contains(t, helper.CalledMethods, "validate")

	nested := fm.Classes[1]
	assert.Equal(t, "com.example.UserService.Entry", nested.QualifiedName)
	assert.Equal(t, 1, nested.MethodCount)
}

const pythonSource = `class OrderProcessor(BaseProcessor):
    retries = 3

    def __init__(self, repo):
        self.repo = repo
        self.total = 0

    def process(self, order, notify=True):
        if order.valid and notify:
            self.repo.save(order)
        elif order.pending:
            self.total += 1
        return self.total

    @staticmethod
    def build():
        return OrderProcessor(None)

    async def _refresh(self):
        await self.sync()
`

func TestPython(t *testing.T) {
	fm := extract(t, "orders.py", pythonSource)
	require.Len(t, fm.Classes, 1)

	c := fm.Classes[0]
	assert.Equal(t, "OrderProcessor", c.Name)
	assert.Equal(t, []string{"BaseProcessor"}, c.Inherits)
	assert.Equal(t, 3, c.FieldCount)
	assert.Equal(t, 4, c.MethodCount)

	init := methodByName(t, c, "__init__")
	assert.True(t, init.IsPublic)
	assert.Equal(t, 1, init.Parameters)

	process := methodByName(t, c, "process")
	assert.Equal(t, 2, process.Parameters)
	assert.Equal(t, 4, process.Complexity)
	assert.Contains(t, process.CalledMethods, "repo.save")
	assert.ElementsMatch(t, []string{"repo", "total"}, process.AccessedFields)

	build := methodByName(t, c, "build")
	assert.True(t, build.IsStatic)
	assert.Contains(t, build.CalledMethods, "OrderProcessor")

	refresh := methodByName(t, c, "_refresh")
	assert.False(t, refresh.IsPublic)
	assert.True(t, refresh.IsAsync)
	assert.Equal(t, 0, refresh.Parameters)
	assert.Contains(t, refresh.CalledMethods, "sync")
}

const typescriptSource = `export class CartService extends BaseService implements Disposable {
  private items: Item[] = [];
  static instances = 0;

  constructor(private readonly repo: CartRepository) {
    super();
  }

  async checkout(user: User, coupon?: string): Promise<Receipt> {
    const total = this.items.length > 0 ? this.sum() : 0;
    return this.repo.save(user, total ?? 0);
  }

  private reset(): void {
    this.items = [];
  }

  handle = (event) => {
    this.items.push(event);
  };
}
`

func TestTypeScript(t *testing.T) {
	fm := extract(t, "cart.ts", typescriptSource)
	require.Len(t, fm.Classes, 1)

	c := fm.Classes[0]
	assert.Equal(t, "CartService", c.Name)
	assert.Equal(t, []string{"BaseService"}, c.Inherits)
	assert.Equal(t, []string{"Disposable"}, c.Implements)
	assert.Equal(t, 2, c.FieldCount)
	assert.Equal(t, 4, c.MethodCount)
	assert.Contains(t, c.Dependencies, "User")
	assert.Contains(t, c.Dependencies, "CartRepository")

	ctor := methodByName(t, c, "constructor")
	assert.Equal(t, 1, ctor.Parameters)

	checkout := methodByName(t, c, "checkout")
	assert.True(t, checkout.IsAsync)
	assert.True(t, checkout.IsPublic)
	assert.Equal(t, 2, checkout.Parameters)
	assert.Equal(t, 3, checkout.Complexity)
	assert.Contains(t, checkout.CalledMethods, "sum")
	assert.Contains(t, checkout.CalledMethods, "repo.save")
	assert.Contains(t, checkout.AccessedFields, "items")

	reset := methodByName(t, c, "reset")
	assert.False(t, reset.IsPublic)
	assert.Equal(t, "void", reset.ReturnType)

	handle := methodByName(t, c, "handle")
	assert.Equal(t, 1, handle.Parameters)
	assert.Contains(t, handle.AccessedFields, "items")
}

func TestJavaScript(t *testing.T) {
	src := `class Widget extends Component {
  #secret = 1;

  render() {
    return this.props.visible && this.draw();
  }

  static create() {
    return new Widget();
  }
}
`
	fm := extract(t, "widget.js", src)
	require.Len(t, fm.Classes, 1)

	c := fm.Classes[0]
	assert.Equal(t, []string{"Component"}, c.Inherits)
	assert.Equal(t, 1, c.FieldCount)

	render := methodByName(t, c, "render")
	assert.Equal(t, 2, render.Complexity)
	assert.Contains(t, render.CalledMethods, "draw")
	assert.Contains(t, render.AccessedFields, "props")

	create := methodByName(t, c, "create")
	assert.True(t, create.IsStatic)
	assert.Contains(t, create.CalledMethods, "Widget")
}

const rustSource = `pub struct Cache {
    items: Vec<Entry>,
    hits: u64,
}

pub trait Store {
    fn get(&self, key: &str) -> Option<Entry>;
}

impl Cache {
    pub fn new() -> Self {
        Cache { items: Vec::new(), hits: 0 }
    }

    pub async fn lookup(&mut self, key: &str, fallback: bool) -> Option<Entry> {
        match self.find(key) {
            Some(e) => Some(e),
            None if fallback => self.load(key),
            None => None,
        }
    }
}

impl Store for Cache {
    fn get(&self, key: &str) -> Option<Entry> {
        if self.hits > 0 && key.len() > 0 { self.find(key) } else { None }
    }
}
`

func TestRust(t *testing.T) {
	fm := extract(t, "cache.rs", rustSource)
	require.Len(t, fm.Classes, 2)

	c := fm.Classes[0]
	assert.Equal(t, "Cache", c.Name)
	assert.Equal(t, 2, c.FieldCount)
	assert.Equal(t, 3, c.MethodCount)
	assert.Equal(t, []string{"Store"}, c.Implements)
	assert.Equal(t, []string{"Entry"}, c.Dependencies)
	assert.Greater(t, c.Lines, 4)

	ctor := methodByName(t, c, "new")
	assert.True(t, ctor.IsStatic)
	assert.True(t, ctor.IsPublic)
	assert.Equal(t, 0, ctor.Parameters)

	lookup := methodByName(t, c, "lookup")
	assert.Equal(t, 2, lookup.Parameters)
	assert.True(t, lookup.IsAsync)
	assert.False(t, lookup.IsStatic)
	assert.Equal(t, 5, lookup.Complexity)
	assert.Contains(t, lookup.CalledMethods, "find")
	assert.Contains(t, lookup.CalledMethods, "load")

	get := methodByName(t, c, "get")
	assert.Equal(t, 3, get.Complexity)
	assert.Contains(t, get.AccessedFields, "hits")

	trait := fm.Classes[1]
	assert.Equal(t, "Store", trait.Name)
	assert.Equal(t, 1, trait.MethodCount)
	assert.True(t, trait.Methods[0].IsPublic)
}

const goSource = `package shop

type Cart struct {
	Items      []Item
	owner, tag string
	Logger
}

type Pricer interface {
	Price(item Item) int
}

func (c *Cart) Total(p Pricer, discount, tax int) int {
	sum := 0
	for _, it := range c.Items {
		if it.Qty > 0 && discount > 0 {
			sum += p.Price(it)
		}
	}
	return sum + c.adjust(tax)
}

func (c *Cart) adjust(v int) int { return v }

func helper() {}
`

func TestGo(t *testing.T) {
	fm := extract(t, "cart.go", goSource)
	require.Len(t, fm.Classes, 2)

	c := fm.Classes[0]
	assert.Equal(t, "Cart", c.Name)
	assert.Equal(t, "shop.Cart", c.QualifiedName)
	assert.Equal(t, 3, c.FieldCount)
	assert.Equal(t, []string{"Logger"}, c.Inherits)
	assert.Equal(t, 2, c.MethodCount)
	assert.Contains(t, c.Dependencies, "Item")
	assert.Contains(t, c.Dependencies, "Pricer")
	assert.NotContains(t, c.Dependencies, "Logger")

	total := methodByName(t, c, "Total")
	assert.True(t, total.IsPublic)
	assert.Equal(t, 3, total.Parameters)
	assert.Equal(t, 4, total.Complexity)
	assert.Equal(t, "int", total.ReturnType)
	assert.Contains(t, total.CalledMethods, "p.Price")
	assert.Contains(t, total.CalledMethods, "adjust")
	assert.Equal(t, []string{"Items"}, total.AccessedFields)

	assert.False(t, methodByName(t, c, "adjust").IsPublic)

	pricer := fm.Classes[1]
	assert.Equal(t, "Pricer", pricer.Name)
	require.Equal(t, 1, pricer.MethodCount)
	assert.Equal(t, 1, pricer.Methods[0].Parameters)
}

const csharpSource = `namespace Shop.Orders
{
    public class OrderService : BaseService, IOrderService
    {
        private readonly IRepository _repo;
        private int _count;

        public string Name { get; set; }

        public OrderService(IRepository repo)
        {
            _repo = repo;
        }

        public async Task<Order> PlaceAsync(Order order, bool express)
        {
            if (order == null || !express)
            {
                throw new ArgumentException("order");
            }
            await _repo.SaveAsync(order);
            return order;
        }

        private static int Helper(int x) => x > 0 ? x : -x;
    }
}
`

func TestCSharp(t *testing.T) {
	fm := extract(t, "OrderService.cs", csharpSource)
	require.Len(t, fm.Classes, 1)

	c := fm.Classes[0]
	assert.Equal(t, "OrderService", c.Name)
	assert.Equal(t, "Shop.Orders.OrderService", c.QualifiedName)
	assert.Equal(t, []string{"BaseService"}, c.Inherits)
	assert.Equal(t, []string{"IOrderService"}, c.Implements)
	assert.Equal(t, 2, c.FieldCount)
	assert.Equal(t, 1, c.PropertyCount)
	assert.Equal(t, 3, c.MethodCount)
	assert.Contains(t, c.Dependencies, "Order")
	assert.Contains(t, c.Dependencies, "IRepository")

	place := methodByName(t, c, "PlaceAsync")
	assert.True(t, place.IsAsync)
	assert.True(t, place.IsPublic)
	assert.Equal(t, 2, place.Parameters)
	assert.Equal(t, 3, place.Complexity)
	assert.Contains(t, place.CalledMethods, "_repo.SaveAsync")
	assert.Contains(t, place.CalledMethods, "ArgumentException")

	helper := methodByName(t, c, "Helper")
	assert.True(t, helper.IsStatic)
	assert.False(t, helper.IsPublic)
	assert.Equal(t, 2, helper.Complexity)
}
