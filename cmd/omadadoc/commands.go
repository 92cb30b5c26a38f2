package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgallion1/omadadoc/internal/apidoc"
	"github.com/dgallion1/omadadoc/internal/controller"
	"github.com/dgallion1/omadadoc/internal/definition"
	"github.com/dgallion1/omadadoc/internal/openapi"
	"github.com/dgallion1/omadadoc/internal/report"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Extract every section and endpoint of an API document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocumentation(args[0])
		if err != nil {
			return err
		}
		out, err := documentation(doc)
		if err != nil {
			return err
		}
		return writeOutput(func(w io.Writer) error {
			return encode(w, format, out)
		})
	},
}

var classesCmd = &cobra.Command{
	Use:   "classes <file>",
	Short: "Group the endpoints of an API document into client classes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocumentation(args[0])
		if err != nil {
			return err
		}
		roots, err := definition.Build(doc, definition.WithLogger(log))
		if err != nil {
			return err
		}
		return writeOutput(func(w io.Writer) error {
			return encode(w, format, roots)
		})
	},
}

var openapiCmd = &cobra.Command{
	Use:   "openapi <file>",
	Short: "Convert an API document to an OpenAPI 3 description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocumentation(args[0])
		if err != nil {
			return err
		}
		spec, err := openapi.Build(doc)
		if err != nil {
			return err
		}

		var data []byte
		if format == "yaml" {
			data, err = openapi.MarshalYAML(spec)
		} else {
			data, err = json.MarshalIndent(spec, "", "  ")
			data = append(data, '\n')
		}
		if err != nil {
			return err
		}
		return writeOutput(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
	},
}

var reportHTML bool

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Render a readable reference of an API document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocumentation(args[0])
		if err != nil {
			return err
		}
		roots, err := definition.Build(doc, definition.WithLogger(log))
		if err != nil {
			return err
		}
		md, err := report.Markdown(doc, roots)
		if err != nil {
			return err
		}

		data := []byte(md)
		if reportHTML {
			if data, err = report.HTML(md); err != nil {
				return err
			}
		}
		return writeOutput(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
	},
}

var (
	callPathParams  []string
	callQueryParams []string
	callBody        string
)

var callCmd = &cobra.Command{
	Use:   "call <METHOD> <path>",
	Short: "Call an endpoint of a live controller",
	Long: `Call an endpoint of the controller configured with CONTROLLER_URL (or the
controller section of --config). The path is taken as documented, for example
/{omadacId}/api/v2/sites/{siteId}/stat/traffic. {omadacId} is resolved from the
controller itself; other placeholders are set with -p.`,
	Example: `  omadadoc call GET /{omadacId}/api/v2/sites/{siteId}/stat/traffic -p siteId=abc -q start=1682000000`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Controller.URL == "" {
			return fmt.Errorf("no controller configured, set CONTROLLER_URL")
		}

		u, err := callURL(args[1], callPathParams, callQueryParams)
		if err != nil {
			return err
		}
		var body any
		if callBody != "" {
			if !json.Valid([]byte(callBody)) {
				return fmt.Errorf("--body is not valid JSON")
			}
			body = json.RawMessage(callBody)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := newControllerClient()
		defer client.Close()

		var result json.RawMessage
		if err := client.Do(ctx, strings.ToUpper(args[0]), u, body, &result); err != nil {
			return err
		}

		var decoded any
		if len(result) > 0 {
			if err := json.Unmarshal(result, &decoded); err != nil {
				return err
			}
		}
		return writeOutput(func(w io.Writer) error {
			return encode(w, format, decoded)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the omadadoc version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "omadadoc", version)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "Render HTML instead of Markdown")

	callCmd.Flags().StringArrayVarP(&callPathParams, "path-param", "p", nil, "Path parameter as name=value")
	callCmd.Flags().StringArrayVarP(&callQueryParams, "query", "q", nil, "Query parameter as name=value")
	callCmd.Flags().StringVar(&callBody, "body", "", "JSON request body")
}

// documentation is the serializable form of a parsed document.
func documentation(doc *apidoc.Documentation) (any, error) {
	v, err := doc.Version()
	if err != nil {
		return nil, err
	}
	sections, err := doc.Sections()
	if err != nil {
		return nil, err
	}
	return struct {
		Version  string           `json:"version" yaml:"version"`
		Sections []apidoc.Section `json:"sections" yaml:"sections"`
	}{v, sections}, nil
}

// callURL builds a controller URL from a documented path and name=value
// assignments.
func callURL(path string, pathParams, queryParams []string) (controller.URL, error) {
	u := controller.NewURL(path)
	for _, p := range pathParams {
		name, value, err := assignment(p)
		if err != nil {
			return u, err
		}
		if u, err = u.WithPathParameter(name, value); err != nil {
			return u, err
		}
	}
	for _, q := range queryParams {
		name, value, err := assignment(q)
		if err != nil {
			return u, err
		}
		u = u.WithQueryParameter(name, value)
	}
	return u, nil
}

func assignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected name=value, got %q", s)
	}
	return name, value, nil
}

func newControllerClient() *controller.Client {
	opts := []controller.Option{
		controller.WithTimeout(cfg.Controller.Timeout),
		controller.WithLogger(log),
	}
	if cfg.Controller.Username != "" {
		opts = append(opts, controller.WithCredentials(cfg.Controller.Username, cfg.Controller.Password))
	}
	return controller.NewClient(cfg.Controller.URL, opts...)
}
