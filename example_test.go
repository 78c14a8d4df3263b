package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// ExampleEngine_Run loads a tree from an in-memory source, binds one
// native action, and drives the run to completion.
func ExampleEngine_Run() {
	loader := memory.NewLoader(map[string]string{"main.tree": `
impl say(message: string);

root main {
    say("hello")
    say("world")
}
`})

	reg := registry.New()
	reg.Register("say", func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		msg, _ := args.FindOrIndex("message", 0)
		s, _ := msg.AsString()
		fmt.Println(s)
		return domain.StatusSuccess, nil
	})

	engine, err := arbor.New("main.tree", loader, arbor.WithInvoker(reg))
	if err != nil {
		log.Fatal(err)
	}

	status, err := engine.Run(context.Background(), nil, arbor.DefaultMaxTicks)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(status)

	// Output:
	// hello
	// world
	// success
}

// ExampleEngine_NewExecution drives a run tick by tick, which is how a
// host loop integrates a tree that reports Running leaves.
func ExampleEngine_NewExecution() {
	loader := memory.NewLoader(map[string]string{"main.tree": `
impl charge();

root main {
    charge()
}
`})

	reg := registry.New()
	charge := 0
	reg.Register("charge", func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
		charge += 50
		if charge < 100 {
			return domain.StatusRunning, nil
		}
		return domain.StatusSuccess, nil
	})

	engine, err := arbor.New("main.tree", loader, arbor.WithInvoker(reg))
	if err != nil {
		log.Fatal(err)
	}
	exec, err := engine.NewExecution(nil)
	if err != nil {
		log.Fatal(err)
	}

	for {
		status, err := exec.Tick(context.Background())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("tick %d: %s\n", exec.Ticks(), status)
		if status.Terminal() {
			break
		}
	}

	// Output:
	// tick 1: running
	// tick 2: success
}
