package repo

// Context is the per-caller security context threaded through every
// repository operation. It is derived from the authenticated session, never
// from resource content.
type Context struct {
	// Author is the reference recorded as meta.author on writes,
	// e.g. "Practitioner/123".
	Author string
	// OnBehalfOf, when set, records the delegated author.
	OnBehalfOf string
	// Project is the caller's tenant. Every resource the caller writes is
	// placed in this compartment, and reads are restricted to it.
	Project string
	// Compartments, when non-empty, further restricts visibility to
	// resources sharing at least one of these compartments.
	Compartments []string
	// SuperAdmin bypasses tenant isolation and may control server-managed
	// meta fields.
	SuperAdmin bool
	// ProjectAdmin may control meta fields within its own project.
	ProjectAdmin bool
}

// Privileged reports whether the caller may supply server-managed meta
// fields (author, versionId, lastUpdated) directly.
func (c *Context) Privileged() bool {
	return c.SuperAdmin || c.ProjectAdmin
}

// CanSee reports whether a resource with the given compartments is visible
// to the caller.
func (c *Context) CanSee(compartments []string) bool {
	if c.SuperAdmin {
		return true
	}
	if !contains(compartments, c.Project) && !contains(compartments, publicProject) {
		return false
	}
	if len(c.Compartments) == 0 {
		return true
	}
	for _, want := range c.Compartments {
		if contains(compartments, want) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
