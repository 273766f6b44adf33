// sceneconv checks scene manifests and converts authored files for kitu.
//
// Usage:
//
//	go run ./cmd/sceneconv <command> [-charset name] [-out path] <args>
//
// Commands:
//
//	check <scene.yaml>   load a scene and parse every file it names
//	tmd <file.tmd>       convert a TMD file (any charset) to UTF-8 YAML
//	hash <token>         print the bcrypt hash for admin.token_hash
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kitu-show/kitu/internal/admin"
	"github.com/kitu-show/kitu/internal/data"
	"github.com/kitu-show/kitu/internal/scripting"
	"github.com/kitu-show/kitu/internal/timeline"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	charset := fs.String("charset", "utf-8", "encoding of authored files")
	out := fs.String("out", "", "output path (default: stdout)")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}
	arg := fs.Arg(0)

	var (
		text string
		err  error
	)
	switch cmd {
	case "check":
		text, err = checkScene(arg, *charset)
	case "tmd":
		text, err = convertTMD(arg, *charset)
	case "hash":
		text, err = admin.HashToken(arg)
		text += "\n"
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR [%s]: %v\n", cmd, err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Print(text)
		return
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, []byte(text), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: sceneconv <check|tmd|hash> [-charset name] [-out path] <arg>")
}

// checkScene parses everything a scene names without running it and returns
// a one-line-per-file report.
func checkScene(path, charset string) (string, error) {
	scene, err := data.LoadScene(path)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "scene %q: %d components\n", scene.Name, len(scene.Components))

	for _, f := range scene.Timelines {
		text, err := data.ReadText(scene.Resolve(f.File), charset)
		if err != nil {
			return "", err
		}
		tl, err := timeline.Parse(text)
		if err != nil {
			return "", fmt.Errorf("timeline %s: %w", f.Name, err)
		}
		fmt.Fprintf(&b, "timeline %s: %d steps\n", f.Name, tl.Len())
	}

	host := scripting.NewHost(nil)
	defer host.Close()
	for _, f := range scene.Scripts {
		text, err := data.ReadText(scene.Resolve(f.File), charset)
		if err != nil {
			return "", err
		}
		if err := host.RegisterScript(f.Name, text); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "script %s: on_tick=%t\n", f.Name, host.Has(f.Name, "on_tick"))
	}

	for _, t := range scene.Tables {
		text, err := data.ReadText(scene.Resolve(t.File), charset)
		if err != nil {
			return "", err
		}
		doc, err := data.ParseTMD(text)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Table, err)
		}
		fmt.Fprintf(&b, "table %s: %d keys\n", t.Table, doc.Len())
	}
	return b.String(), nil
}

// convertTMD re-encodes a TMD file as a YAML mapping in document order.
func convertTMD(path, charset string) (string, error) {
	text, err := data.ReadText(path, charset)
	if err != nil {
		return "", err
	}
	doc, err := data.ParseTMD(text)
	if err != nil {
		return "", err
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range doc.Keys() {
		e, _ := doc.Get(k)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: e.Value},
		)
	}
	yamlData, err := yaml.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	header := fmt.Sprintf("# converted from %s (%s)\n\n", filepath.Base(path), charset)
	return header + string(yamlData), nil
}
