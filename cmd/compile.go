package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/altair-render/altair/packer"
	"github.com/altair-render/altair/pipeline"
	"github.com/altair-render/altair/scene"
)

// Compile a procedural demo scene and print the resulting buffer layout and
// stage timings.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := pipeline.DefaultOptions()
	if leafSize := ctx.Int("leaf-size"); leafSize > 0 {
		opts.BVH.LeafSize = leafSize
	}

	p := pipeline.New(opts)
	defer p.Dispose()

	root := demoScene(ctx.Int("triangles"))
	out, err := p.CompileScene(root)
	if err != nil {
		return fmt.Errorf("compile: %v", err)
	}

	fmt.Println(out.Stats.String())
	for _, buf := range []*packer.Buffer{out.Materials, out.Triangles, out.Nodes} {
		if buf != nil {
			fmt.Printf("  %s\n", buf)
		}
	}
	for slot := scene.MapSlot(0); slot < scene.NumMapSlots; slot++ {
		if out.Images[slot] != nil {
			fmt.Printf("  %s: %s\n", slot, out.Images[slot])
		}
	}
	return nil
}

// Compile a synthetic HDR panorama into an importance-sampling table and
// print its layout.
func CompileEnvironment(ctx *cli.Context) error {
	setupLogging(ctx)

	p := pipeline.New(pipeline.DefaultOptions())
	defer p.Dispose()

	img := demoPanorama(ctx.Int("width"), ctx.Int("height"))
	out, err := p.CompileEnvironment(img)
	if err != nil {
		return fmt.Errorf("envmap: %v", err)
	}

	dist := out.Distribution
	fmt.Printf("distribution: %dx%d cells\n", dist.Width, dist.Height)
	fmt.Printf("packed table: %s\n", out.Table)
	if err := dist.Validate(); err != nil {
		return fmt.Errorf("envmap: validation failed: %v", err)
	}
	fmt.Println("validation: ok")
	return nil
}
