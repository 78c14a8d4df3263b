// Package arbor is a behavior-tree engine driven by a small scripting
// language. Trees are written in .tree files, loaded through a
// pluggable source loader, statically bound and type-checked, and then
// ticked against native actions registered in Go.
//
// The minimal flow:
//
//	reg := registry.New()
//	reg.Register("say", func(ctx context.Context, args domain.Args, bb *domain.Blackboard) (domain.Status, error) {
//		fmt.Println("hello")
//		return domain.StatusSuccess, nil
//	})
//
//	engine, err := arbor.New("main.tree", fs.NewLoader("trees"), arbor.WithInvoker(reg))
//	if err != nil {
//		log.Fatal(err)
//	}
//	status, err := engine.Run(ctx, nil, 0)
//
// A loaded Engine is immutable and safe to share; each call to
// NewExecution (or Run) starts an independent run with its own
// blackboard.
package arbor
