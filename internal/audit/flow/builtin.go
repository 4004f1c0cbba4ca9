package flow

// Builtin returns the flows run against every URL unless --flow narrows them.
func Builtin() []Flow {
	return []Flow{
		{
			Name:        "homepage-loads",
			Description: "Target URL loads and renders a body",
			Steps: []Step{
				{Name: "open page", Action: ActionNavigate},
				{Name: "body visible", Action: ActionWaitVisible, Selector: "body"},
			},
		},
		{
			Name:        "has-title",
			Description: "Page declares a non-empty document title",
			Steps: []Step{
				{Name: "open page", Action: ActionNavigate},
				{Name: "title present", Action: ActionAssertTitle},
			},
		},
		{
			Name:        "has-main-heading",
			Description: "Page renders a top-level heading",
			Steps: []Step{
				{Name: "open page", Action: ActionNavigate},
				{Name: "h1 visible", Action: ActionWaitVisible, Selector: "h1"},
			},
		},
	}
}

// DefaultRegistry returns a registry of the builtin flows.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		// Builtins are static and covered by tests.
		panic(err)
	}

	return r
}
