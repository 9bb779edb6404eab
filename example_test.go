package prism_test

import (
	"context"
	"fmt"
	"log"
	"reflect"

	"github.com/aretw0/prism"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/projection"
)

type Point struct {
	X, Y  float64
	Label string
}

func Example() {
	host := prism.New()
	split, err := host.Split("points", reflect.TypeFor[*Point]())
	if err != nil {
		log.Fatal(err)
	}

	reg := split.Registry()
	in := reg.Channel(domain.ScopeInput, projection.PortInput)
	_ = in.Set(0, &Point{X: 1, Y: 2, Label: "a"})
	_ = in.Set(1, &Point{X: 3, Y: 4, Label: "b"})

	if _, err := host.Tick(context.Background()); err != nil {
		log.Fatal(err)
	}

	fmt.Println(reg.Names(domain.ScopeOutput))
	for _, name := range []string{"X", "Y", "Label"} {
		ch := reg.Channel(domain.ScopeOutput, name)
		fmt.Println(name, ch.Get(0), ch.Get(1))
	}
	// Output:
	// [Top Level Type Valid X Y Label]
	// X 1 3
	// Y 2 4
	// Label a b
}
