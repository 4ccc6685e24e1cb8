package block

// MetadataFragments names the page metadata entry that overrides the query
// path of every block on the page.
const MetadataFragments = "fragments"

// Metadata reads named values from the surrounding page.
type Metadata interface {
	Metadata(name string) string
}

// StaticMetadata serves metadata from a fixed map.
type StaticMetadata map[string]string

func (m StaticMetadata) Metadata(name string) string {
	return m[name]
}
