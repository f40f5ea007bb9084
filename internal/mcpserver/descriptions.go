package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeGodClasses() string {
	return `Finds god classes, god methods and god files: types, methods and files that exceed size and complexity limits.

USE WHEN:
- Looking for refactoring candidates in an unfamiliar codebase
- Deciding how to split an oversized class
- Reviewing whether a change pushed a class past its limits

INTERPRETING RESULTS:
- A class is a god class when it exceeds any of max_class_lines, max_methods or max_class_complexity
- Each violation reads "kind: actual > threshold"
- God methods carry a violation_score; 1.0 means one limit is fully exceeded, above 2.0 is critical
- clusters are suggested extractions: methods that share fields and naming, with a cohesion score in [0,1]
- Cohesion above 0.7 is a strong candidate for a new class
- God files hold too many classes or too many lines

METRICS RETURNED:
- summary: counts of classes, god classes, god methods, god files, suggested extractions and skipped files
- results: per-class metrics (lines, method_count, complexity), violations, god methods and clusters
- god_files: path, class_count, lines and violations
- skipped: files that failed to parse when skip_errors is enabled`
}

func describeArchitecture() string {
	return `Builds the class dependency graph and reports coupling, dependency cycles and overall architecture quality.

USE WHEN:
- Finding tangled modules before a larger restructuring
- Locating circular dependencies between classes
- Identifying the classes most of the codebase depends on

INTERPRETING RESULTS:
- afferent: how many classes depend on this one; efferent: how many this one depends on
- instability = efferent / (afferent + efferent); 0 is stable, 1 is unstable
- cycles lists each set of classes that depend on each other, members sorted
- maintainability_index is in [0,1]: above 0.8 Excellent, above 0.6 Good, above 0.4 Fair, otherwise Poor
- central ranks classes by PageRank; high scores are change-risky hubs

METRICS RETURNED:
- architecture.metrics: nodes, edges, density, cycles, cyclomatic_quality, maintainability_index
- architecture.coupling: per-class afferent, efferent and instability
- architecture.cycles and architecture.central
- summary and metadata for the run`
}
