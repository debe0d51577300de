package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ClassRegistry is an ordered, duplicate-free list of class names.
// A class id is its index. The zero value is an empty registry.
type ClassRegistry struct {
	names    []string
	selected int
}

// NewClassRegistry creates a registry from names, dropping blanks and duplicates
func NewClassRegistry(names ...string) *ClassRegistry {
	c := &ClassRegistry{}
	for _, n := range names {
		_, _ = c.Add(n)
	}
	return c
}

// Len returns the number of classes
func (c *ClassRegistry) Len() int {
	return len(c.names)
}

// Names returns a copy of the class names in id order
func (c *ClassRegistry) Names() []string {
	return slices.Clone(c.names)
}

// Name returns the name for id
func (c *ClassRegistry) Name(id int) (string, bool) {
	if id < 0 || id >= len(c.names) {
		return "", false
	}
	return c.names[id], true
}

// IndexOf returns the id of name, or -1
func (c *ClassRegistry) IndexOf(name string) int {
	return slices.Index(c.names, name)
}

// Add appends a class and returns its id. Surrounding whitespace is trimmed
// first, as classes.txt cannot hold it. Adding an existing name is a no-op
// that returns the existing id; matching is exact and case-sensitive.
func (c *ClassRegistry) Add(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1, &ValidationError{Field: "class", Message: "class name is required"}
	}
	if i := c.IndexOf(name); i >= 0 {
		return i, nil
	}
	c.names = append(c.names, name)
	return len(c.names) - 1, nil
}

// Remove deletes a class. Later ids shift down by one.
func (c *ClassRegistry) Remove(id int) error {
	if err := c.checkID(id); err != nil {
		return err
	}
	c.names = slices.Delete(c.names, id, id+1)
	c.clampSelected()
	return nil
}

// Rename replaces a class name in place. The new name is trimmed like Add.
func (c *ClassRegistry) Rename(id int, newName string) error {
	if err := c.checkID(id); err != nil {
		return err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &ValidationError{Field: "class", Message: "class name is required"}
	}
	if i := c.IndexOf(newName); i >= 0 && i != id {
		return &ValidationError{Field: "class", Message: fmt.Sprintf("class %q already exists", newName)}
	}
	c.names[id] = newName
	return nil
}

// Select sets the selected class id
func (c *ClassRegistry) Select(id int) error {
	if err := c.checkID(id); err != nil {
		return err
	}
	c.selected = id
	return nil
}

// Selected returns the selected class id. It is always a valid index when
// the registry is non-empty and 0 when it is empty.
func (c *ClassRegistry) Selected() int {
	return c.selected
}

// SelectedName returns the name of the selected class, if any
func (c *ClassRegistry) SelectedName() (string, bool) {
	return c.Name(c.selected)
}

// ToText renders one name per line with a trailing newline (classes.txt)
func (c *ClassRegistry) ToText() string {
	if len(c.names) == 0 {
		return ""
	}
	return strings.Join(c.names, "\n") + "\n"
}

// FromText replaces the registry with the names in s, one per line.
// Lines are trimmed, blank lines dropped and the selection reset to 0.
func (c *ClassRegistry) FromText(s string) {
	c.names = nil
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || slices.Contains(c.names, line) {
			continue
		}
		c.names = append(c.names, line)
	}
	c.selected = 0
}

// Clone returns an independent copy
func (c *ClassRegistry) Clone() *ClassRegistry {
	return &ClassRegistry{names: slices.Clone(c.names), selected: c.selected}
}

func (c *ClassRegistry) checkID(id int) error {
	if id < 0 || id >= len(c.names) {
		return &ValidationError{
			Field:   "classID",
			Message: fmt.Sprintf("class id %d out of range [0,%d)", id, len(c.names)),
		}
	}
	return nil
}

func (c *ClassRegistry) clampSelected() {
	if c.selected >= len(c.names) {
		c.selected = max(0, len(c.names)-1)
	}
	if c.selected < 0 {
		c.selected = 0
	}
}
