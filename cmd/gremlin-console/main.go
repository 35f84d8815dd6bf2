// Gremlin console - evaluate queries against a TinkerPop-compatible server
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/gremlin"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	host := flag.String("host", "localhost", "Server host")
	port := flag.Int("port", 8182, "Server port")
	format := flag.String("format", "graphbinary", "Wire format: graphbinary, graphson-v2, graphson-v3")
	username := flag.String("user", "", "Username for SASL authentication")
	password := flag.String("pass", "", "Password for SASL authentication")
	useTLS := flag.Bool("tls", false, "Dial wss:// instead of ws://")
	configPath := flag.String("c", "", "Path to a TOML options file")
	query := flag.String("e", "", "Evaluate a single query and exit")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gremlin-console [options]\n\n")
		fmt.Fprintf(os.Stderr, "Connects to a graph server and evaluates Gremlin queries.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gremlin-console                              # Interactive console against localhost:8182\n")
		fmt.Fprintf(os.Stderr, "  gremlin-console -e 'g.V().count()'           # One-shot query\n")
		fmt.Fprintf(os.Stderr, "  gremlin-console -host db.example.com -tls    # Remote server over wss://\n")
		fmt.Fprintf(os.Stderr, "  gremlin-console -c gremlin.toml              # Options from a TOML file\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	opts := gremlin.DefaultOptions()
	if *configPath != "" {
		loaded, err := gremlin.LoadOptions(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts = loaded
	}
	applyFlags(&opts, *host, *port, *format, *username, *password, *useTLS)

	client, err := gremlin.Dial(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if *query != "" {
		if err := evaluate(client, *query); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	repl(client)
}

// applyFlags overlays explicitly-set flags on top of file-loaded options.
func applyFlags(opts *gremlin.Options, host string, port int, format, username, password string, useTLS bool) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["host"] {
		opts.Host = host
	}
	if set["port"] {
		opts.Port = port
	}
	if set["format"] {
		opts.Format = gremlin.Format(format)
	}
	if set["user"] {
		opts.Username = username
	}
	if set["pass"] {
		opts.Password = password
	}
	if set["tls"] {
		opts.TLS = useTLS
	}
}

func repl(client *gremlin.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("gremlin> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit", ":q":
			return
		default:
			if err := evaluate(client, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
		fmt.Print("gremlin> ")
	}
}

func evaluate(client *gremlin.Client, query string) error {
	results, err := client.Execute(query, nil)
	if err != nil {
		return err
	}
	defer results.Close()
	for {
		v, ok, err := results.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Printf("==> %v\n", gremlin.Native(v))
	}
}
