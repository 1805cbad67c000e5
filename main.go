package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/altair-render/altair/cmd"
)

func main() {
	app := cli.NewApp()
	app.Name = "altair"
	app.Usage = "compile 3D scenes into GPU-ready path tracing buffers"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile a procedural demo scene and report buffer stats",
			Description: `
Extract a demo scene graph into flat triangle and material arrays, build a
SAH BVH over the triangles and pack everything into GPU-shaped buffers,
reporting per-stage timings and the resulting buffer layout.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "triangles",
					Value: 10000,
					Usage: "approximate triangle count for the demo scene",
				},
				cli.IntFlag{
					Name:  "leaf-size",
					Value: 6,
					Usage: "max triangles per BVH leaf",
				},
			},
			Action: cmd.CompileScene,
		},
		{
			Name:  "envmap",
			Usage: "build an importance-sampling table from a synthetic panorama",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 2048,
					Usage: "panorama width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 1024,
					Usage: "panorama height",
				},
			},
			Action: cmd.CompileEnvironment,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	os.Stderr.WriteString("error: " + err.Error() + "\n")
	os.Exit(1)
}
