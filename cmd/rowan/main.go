// Command rowan runs a game project: it loads the project file, applies its
// settings, opens the main scene, and plays it in a window.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rowan-engine/rowan"
)

func main() {
	projectPath := flag.String("project", "", "path to the project file")
	scenePath := flag.String("scene", "", "scene to open instead of the project's main scene")
	title := flag.String("title", "", "window title override")
	width := flag.Int("width", 0, "window width override")
	height := flag.Int("height", 0, "window height override")
	flag.Parse()

	if *projectPath == "" && *scenePath == "" {
		fmt.Fprintln(os.Stderr, "usage: rowan --project <file> [--scene <file>] [--title <s>] [--width <n>] [--height <n>]")
		os.Exit(2)
	}

	engine := rowan.NewEngine(rowan.NewEbitenDevice(), rowan.NewEbitenBackend())

	cfg := rowan.RunConfig{Width: 1280, Height: 720, Title: "rowan"}
	sceneFile := *scenePath

	if *projectPath != "" {
		project, err := rowan.LoadProject(*projectPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rowan: %v\n", err)
			os.Exit(1)
		}
		engine.ApplyProject(project)
		cfg.Width = project.IntSetting(rowan.SettingDisplayWidth, cfg.Width)
		cfg.Height = project.IntSetting(rowan.SettingDisplayHeight, cfg.Height)
		cfg.Title = project.StringSetting(rowan.SettingDisplayTitle, project.Name)
		if sceneFile == "" {
			sceneFile = project.ResolvePath(project.MainScene)
		} else {
			sceneFile = project.ResolvePath(sceneFile)
		}
	}

	if sceneFile == "" {
		fmt.Fprintln(os.Stderr, "rowan: project has no main scene and no --scene given")
		os.Exit(1)
	}
	scene, err := rowan.LoadScene(sceneFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rowan: %v\n", err)
		os.Exit(1)
	}
	engine.SetScene(scene)

	if *title != "" {
		cfg.Title = *title
	}
	if *width > 0 {
		cfg.Width = *width
	}
	if *height > 0 {
		cfg.Height = *height
	}

	engine.Play()
	if err := rowan.Run(engine, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "rowan: %v\n", err)
		os.Exit(1)
	}
}
