package objects

// Object is a schemaless object as the API stores it
type Object map[string]any

// Object types served by the API
const (
	TypeUsers        = "users"
	TypeStudies      = "studies"
	TypeCompanies    = "companies"
	TypeInteractions = "interactions"
)

// NewUsers creates an Accessor for users
func NewUsers(transport Transport, options ...AccessorOption) *Accessor[Object] {
	return New[Object](transport, TypeUsers, options...)
}

// NewStudies creates an Accessor for studies
func NewStudies(transport Transport, options ...AccessorOption) *Accessor[Object] {
	return New[Object](transport, TypeStudies, options...)
}

// NewCompanies creates an Accessor for companies
func NewCompanies(transport Transport, options ...AccessorOption) *Accessor[Object] {
	return New[Object](transport, TypeCompanies, options...)
}

// NewInteractions creates an Accessor for interactions
func NewInteractions(transport Transport, options ...AccessorOption) *Accessor[Object] {
	return New[Object](transport, TypeInteractions, options...)
}
