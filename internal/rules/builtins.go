package rules

// RegisterBuiltins registers every built-in rule implementation under its
// canonical "<type>.<name>" id. Called once from this package's init()
// against the process-wide Global registry; callers assembling their own
// Registry (tests, alternate rule sets) can call it directly too.
func RegisterBuiltins(r *Registry) {
	r.MustRegister(bannedSuffixesRule{})

	r.MustRegister(rolePlacementRule{})
	r.MustRegister(rootPackageRule{})

	r.MustRegister(roleDependencyRule{id: "arch.forbiddenRoleDependencies", pairsKey: "forbidden", allow: false})
	r.MustRegister(roleDependencyRule{id: "arch.allowedRoleDependencies", pairsKey: "allowed", allow: true})
	r.MustRegister(packageDependencyRule{id: "arch.forbiddenPackages", pairsKey: "forbidden", allow: false})
	r.MustRegister(packageDependencyRule{id: "arch.allowedPackages", pairsKey: "allowed", allow: true})

	r.MustRegister(maxMethodsByRoleRule{})
	r.MustRegister(maxMethodsPerClassRule{})
	r.MustRegister(maxFieldsPerClassRule{})
	r.MustRegister(couplingCapRule{id: "metrics.maxFanIn", metric: "fanIn"})
	r.MustRegister(couplingCapRule{id: "metrics.maxFanOut", metric: "fanOut"})
	r.MustRegister(couplingCapRule{id: "metrics.maxPackageSpread", metric: "packageSpread"})

	r.MustRegister(unusedPrivateMembersRule{})

	r.MustRegister(forbiddenAnnotationUsageRule{})
	r.MustRegister(forbiddenInternalNamePatternsRule{})
	r.MustRegister(maxPublicTypesRule{})

	r.MustRegister(noCyclesRule{})
	r.MustRegister(maxCyclesRule{})
	r.MustRegister(maxEdgeCountRule{})
	r.MustRegister(maxDependencyDensityRule{})

	r.MustRegister(forbiddenJarDependenciesRule{})
	r.MustRegister(allowOnlyRootRule{})
}
