package common

// Module is the name of an indexing module that can be enabled from configuration.
type Module string

const (
	ModuleProtorune Module = "protorune"
)

func (m Module) String() string {
	return string(m)
}
