// Command weave is the deployment collaborator (spec §6): a thin CLI
// front-end over pkg/weave and pkg/weave/deploy. The engine itself knows
// nothing about flags, plans, or stdin; this file is the only place that
// does, mirroring how cmd/pars is kept separate from pkg/parsley.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sambeau/weave/pkg/weave"
	"github.com/sambeau/weave/pkg/weave/deploy"
)

// Version is set at compile time via -ldflags.
var Version = "0.1.0"

var (
	helpFlag     = flag.Bool("h", false, "Show help message")
	helpLongFlag = flag.Bool("help", false, "Show help message")
	versionFlag  = flag.Bool("V", false, "Show version information")
	versionLong  = flag.Bool("version", false, "Show version information")
	licenseFlag  = flag.Bool("license", false, "Show license information")
	schemaFlag   = flag.Bool("schema", false, "Show the deployment plan JSON schema")
	verboseFlag  = flag.Bool("verbose", false, "Print each action as it runs")
	cleanFlag    = flag.Bool("clean", false, "Reverse a plan's actions: delete its outputs")

	contextFlag = flag.String("c", "", "Context JSON file (direct template mode)")
	evalFlag    = flag.String("e", "", "Evaluate inline template text")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	switch {
	case *helpFlag || *helpLongFlag:
		printHelp()
		os.Exit(0)
	case *versionFlag || *versionLong:
		fmt.Printf("weave version %s\n", Version)
		os.Exit(0)
	case *licenseFlag:
		fmt.Println("No license file is bundled with this build; see the project repository.")
		os.Exit(0)
	case *schemaFlag:
		fmt.Print(deploySchema)
		os.Exit(0)
	}

	md := newMarkdown()

	if *evalFlag != "" {
		os.Exit(runFromString(*evalFlag, *contextFlag, md))
	}

	args := flag.Args()
	if len(args) == 0 {
		startREPL(md)
		return
	}

	path := args[0]
	if isDeploymentPlan(path) {
		os.Exit(runDeployment(path, *verboseFlag, *cleanFlag, md))
	}
	os.Exit(runTemplateFile(path, *contextFlag, md))
}

func printHelp() {
	fmt.Printf(`weave - directive template compiler, version %s

Usage:
  weave [options]                   Start the interactive REPL
  weave [options] <template>        Compile a template to stdout
  weave [options] <plan.json>       Run a deployment plan
  weave -e "template text"          Compile inline template text

Options:
  -h, --help        Show this help message
  -V, --version     Show version information
  --license         Show license information
  --schema          Show the deployment plan JSON schema
  -c <path>         Context JSON file (direct template / inline modes)
  -e <text>         Evaluate inline template text
  --verbose         Print each deployment action as it runs
  --clean           Reverse a plan's actions (delete its outputs)

Examples:
  weave page.tmpl
  weave -c data.json page.tmpl
  weave -e '${name}' -c data.json
  weave --verbose site.json
  weave --clean site.json
`, Version)
}

func runTemplateFile(path, contextPath string, md weave.MarkdownFunc) int {
	var p *weave.Parser
	var err error
	if contextPath != "" {
		p, err = weave.NewWithContextPath(path, contextPath)
	} else {
		p, err = weave.New(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "weave: %v\n", err)
		return 1
	}
	p.SetMarkdown(md)
	if err := p.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "weave: %v\n", err)
		return 1
	}
	fmt.Print(p.Output())
	return 0
}

func runFromString(content, contextPath string, md weave.MarkdownFunc) int {
	var p *weave.Parser
	var err error
	if contextPath != "" {
		ctx, cerr := weave.ReadContext(contextPath)
		if cerr != nil {
			fmt.Fprintf(os.Stderr, "weave: %v\n", cerr)
			return 1
		}
		p, err = weave.FromStringAndPathWithContext("<eval>", content, ctx)
	} else {
		p, err = weave.FromStringAndPath("<eval>", content)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "weave: %v\n", err)
		return 1
	}
	p.SetMarkdown(md)
	if err := p.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "weave: %v\n", err)
		return 1
	}
	fmt.Print(p.Output())
	return 0
}

func runDeployment(planPath string, verbose, clean bool, md weave.MarkdownFunc) int {
	plan, err := deploy.Load(planPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weave: %v\n", err)
		return 1
	}
	runner := &deploy.Runner{Verbose: verbose, MD: md}
	if clean {
		if err := runner.Clean(plan); err != nil {
			fmt.Fprintf(os.Stderr, "weave: %v\n", err)
			return 1
		}
		return 0
	}
	if err := runner.Run(plan); err != nil {
		fmt.Fprintf(os.Stderr, "weave: %v\n", err)
		return 1
	}
	return 0
}

func isDeploymentPlan(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return looksLikePlan(data)
}

const deploySchema = `{
  "type": "object",
  "properties": {
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "compile-file": {"type": "object", "properties": {
            "template": {"type": "string"}, "context": {"type": "string"},
            "destination": {"type": "string"}}},
          "compile-directory": {"type": "object", "properties": {
            "directory": {"type": "string"}, "extensions": {"type": "array", "items": {"type": "string"}},
            "context-directory": {"type": "string"}, "filename-extractor": {"type": "string"},
            "destination": {"type": "string"}}},
          "compile-against": {"type": "object", "properties": {
            "template": {"type": "string"}, "contexts": {"type": "array", "items": {"type": "string"}},
            "alias-to": {"type": "string"}, "for-each": {"type": "string"},
            "destination": {"type": "string"}}},
          "copy-file": {"type": "object", "properties": {
            "source": {"type": "string"}, "destination": {"type": "string"}}},
          "copy-directory": {"type": "object", "properties": {
            "source": {"type": "string"}, "destination": {"type": "string"}}},
          "delete-file": {"type": "object", "properties": {
            "target": {"type": "string"}}}
        }
      }
    }
  },
  "required": ["actions"]
}
`
