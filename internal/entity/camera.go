package entity

type CameraModel struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
}

// Catalog is the ordered list of rentable cameras. It is never mutated after load.
type Catalog []CameraModel

// Find returns the entry with exactly the given id.
func (c Catalog) Find(id string) (CameraModel, bool) {
	for _, m := range c {
		if m.ID == id {
			return m, true
		}
	}
	return CameraModel{}, false
}
