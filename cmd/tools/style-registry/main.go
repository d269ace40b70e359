// cmd/tools/style-registry/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"photoshoot-api/pkg/registry"
)

const defaultRegistryPath = "internal/catalog/styles.json"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return listStyles(*path, out)

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		id := fs.String("id", "", "Style ID (e.g., prompt-7)")
		title := fs.String("title", "", "Display title")
		prompt := fs.String("prompt", "", "Generation prompt")
		preview := fs.String("preview", "", "Preview image path (default /styles/<id>.svg)")
		tags := fs.String("tags", "", "Comma separated tags")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *title == "" || *prompt == "" {
			fs.Usage()
			return fmt.Errorf("id, title, and prompt are required for add")
		}
		style := registry.Style{ID: *id, Title: *title, Prompt: *prompt, Preview: *preview, Tags: splitTags(*tags)}
		if style.Preview == "" {
			style.Preview = "/styles/" + style.ID + ".svg"
		}
		if err := addStyle(*path, style); err != nil {
			return fmt.Errorf("adding style: %w", err)
		}
		fmt.Fprintf(out, "Added style: %s\n", *id)
		return nil

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		id := fs.String("id", "", "Style ID to update")
		field := fs.String("field", "", "Field to update (title, prompt, preview, tags)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *id == "" || *field == "" || *value == "" {
			fs.Usage()
			return fmt.Errorf("id, field, and value are required for update")
		}
		if err := updateStyle(*path, *id, *field, *value); err != nil {
			return fmt.Errorf("updating style: %w", err)
		}
		fmt.Fprintf(out, "Updated style %s, field %s\n", *id, *field)
		return nil

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultRegistryPath, "Path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d styles.\n", len(reg.Styles))
		return nil

	case "help":
		help(out)
		return nil

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func listStyles(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	fmt.Fprintf(out, "Registry %s (updated %s)\n", reg.Version, reg.LastUpdated)
	for _, s := range reg.Styles {
		fmt.Fprintf(out, "  %-12s %s\n", s.ID, s.Title)
	}
	return nil
}

func addStyle(path string, style registry.Style) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.StyleRegistry{Version: "1.0.0"}
	}

	if _, exists := reg.Find(style.ID); exists {
		return fmt.Errorf("style with ID %s already exists", style.ID)
	}

	reg.Styles = append(reg.Styles, style)
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if err := reg.Validate(); err != nil {
		return err
	}
	return registry.SaveRegistry(reg, path)
}

func updateStyle(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	style, found := reg.Find(id)
	if !found {
		return fmt.Errorf("style with ID %s not found", id)
	}

	switch field {
	case "title":
		style.Title = value
	case "prompt":
		style.Prompt = value
	case "preview":
		style.Preview = value
	case "tags":
		style.Tags = splitTags(value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if err := reg.Validate(); err != nil {
		return err
	}
	return registry.SaveRegistry(reg, path)
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func help(out io.Writer) {
	fmt.Fprint(out, `
Usage: style-registry <command> [flags]

Commands:
  list      List the styles in the registry
  add       Add a new style to the registry
  update    Update an existing style's field
  validate  Validate the registry file against its schema
  help      Show this help message

Examples:
  style-registry list
  style-registry add -id prompt-7 -title "Monsoon Terrace" -prompt "A couple on a rain-soaked terrace..."
  style-registry update -id prompt-7 -field title -value "Monsoon Balcony"
  style-registry validate -path internal/catalog/styles.json

Use 'style-registry <command> -h' for more information about a command.
`)
}
