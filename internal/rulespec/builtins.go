package rulespec

// RegisterBuiltins registers every rule spec named in spec.md §4.6's
// built-in rules table into r.
func RegisterBuiltins(r *Registry) {
	r.MustRegister(bannedSuffixesSpec{})
	r.MustRegister(rolePlacementSpec{})
	r.MustRegister(rootPackageSpec{})

	r.MustRegister(edgePairSpec{id: "arch.forbiddenRoleDependencies", pairsKey: "forbidden", refsRoles: true})
	r.MustRegister(edgePairSpec{id: "arch.allowedRoleDependencies", pairsKey: "allowed", refsRoles: true})
	r.MustRegister(edgePairSpec{id: "arch.forbiddenPackages", pairsKey: "forbidden", refsRoles: false})
	r.MustRegister(edgePairSpec{id: "arch.allowedPackages", pairsKey: "allowed", refsRoles: false})

	r.MustRegister(maxMethodsByRoleSpec{})
	r.MustRegister(maxCountSpec{id: "metrics.maxMethodsPerClass", withCountKinds: true})
	r.MustRegister(maxCountSpec{id: "metrics.maxFieldsPerClass", withCountKinds: false})
	r.MustRegister(couplingCapSpec{id: "metrics.maxFanIn"})
	r.MustRegister(couplingCapSpec{id: "metrics.maxFanOut"})
	r.MustRegister(couplingCapSpec{id: "metrics.maxPackageSpread"})

	r.MustRegister(unusedPrivateMembersSpec{})

	r.MustRegister(forbiddenAnnotationUsageSpec{})
	r.MustRegister(forbiddenInternalNamePatternsSpec{})
	r.MustRegister(maxPublicTypesSpec{})

	r.MustRegister(cycleGateSpec{id: "graph.noCycles", withMax: false})
	r.MustRegister(cycleGateSpec{id: "graph.maxCycles", withMax: true})
	r.MustRegister(edgeCountGateSpec{id: "graph.maxEdgeCount"})
	r.MustRegister(edgeCountGateSpec{id: "graph.maxDependencyDensity", fractional: true})

	r.MustRegister(forbiddenJarDependenciesSpec{})
	r.MustRegister(allowOnlyRootSpec{})
}
