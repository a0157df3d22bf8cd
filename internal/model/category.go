package model

// Category names one independently sampled metric family.
type Category string

const (
	CategoryCPU     Category = "cpu"
	CategoryMemory  Category = "memory"
	CategoryDisk    Category = "disk"
	CategoryNetwork Category = "network"
)

// Categories lists every category in composition order.
var Categories = []Category{CategoryCPU, CategoryMemory, CategoryDisk, CategoryNetwork}

func (c Category) String() string {
	return string(c)
}
