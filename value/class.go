package value

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Class is a runtime class: a name, a method table, and an optional
// superclass link consulted by `super` and by method lookup falling through
// an inheritance chain. The method table uses a swiss-table map (as the
// teacher's own Map value type does for its runtime dictionaries) since it
// is mutated after construction (methods are installed one at a time by the
// Method opcode) and then read very frequently during dispatch.
type Class struct {
	Name       string
	Superclass *Class
	Methods    *swiss.Map[string, *Closure]
}

func NewClass(name string, superclass *Class) *Class {
	c := &Class{Name: name, Superclass: superclass, Methods: swiss.NewMap[string, *Closure](uint32(8))}
	return c
}

func (c *Class) String() string { return c.Name }
func (*Class) Type() string     { return "class" }

// FindMethod looks up a method by name, walking the superclass chain.
func (c *Class) FindMethod(name string) (*Closure, bool) {
	if m, ok := c.Methods.Get(name); ok {
		return m, true
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil, false
}

// Instance is a runtime object created by calling a Class. Its field map
// uses the same swiss-table map as Class.Methods, since fields are set
// post-construction and read on every property access.
type Instance struct {
	Class  *Class
	Fields *swiss.Map[string, Value]
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: swiss.NewMap[string, Value](uint32(4))}
}

func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name) }
func (*Instance) Type() string     { return "instance" }
