// Command geocode queries a running geoproxy server and prints the response.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

var Version = "dev"

type options struct {
	host    string
	port    int
	query   string
	service string
	bounds  string
	timeout time.Duration
	legacy  bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "geocode",
		Short:   "resolve an address through a geoproxy server",
		Version: Version,
		Long: `
geocode sends a single lookup to a geoproxy server and prints the JSON
response. The server tries each provider in turn, starting with --service.
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.host, "address", "a", "localhost", "IP address of the server")
	f.IntVarP(&opts.port, "port", "p", 8080, "port of the server")
	f.StringVarP(&opts.query, "query", "q", "", "address to geocode, quoted")
	f.StringVarP(&opts.service, "service", "s", "", "provider to try first (google, here)")
	f.StringVarP(&opts.bounds, "bounds", "b", "", `viewport bias as "lat,lon|lat,lon"`)
	f.DurationVar(&opts.timeout, "timeout", 2*time.Second, "request timeout")
	f.BoolVar(&opts.legacy, "legacy", false, "use the unversioned /geocode route")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

// requestURL builds the lookup URL. Optional parameters are only sent when set.
func requestURL(opts options) string {
	path := "/v1/geocode"
	if opts.legacy {
		path = "/geocode"
	}

	q := url.Values{}
	q.Set("address", opts.query)
	if opts.bounds != "" {
		q.Set("bounds", opts.bounds)
	}
	if opts.service != "" {
		q.Set("service", opts.service)
	}

	u := url.URL{
		Scheme:   "http",
		Host:     opts.host + ":" + strconv.Itoa(opts.port),
		Path:     path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func run(out io.Writer, opts options) error {
	target := requestURL(opts)
	fmt.Fprintf(out, "Sending query: %s\n", target)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)

	client := &fasthttp.Client{Name: "geocode-cli/" + Version}
	if err := client.DoTimeout(req, resp, opts.timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return fmt.Errorf("timeout in request")
		}
		return fmt.Errorf("error in request: %w", err)
	}

	// error statuses still carry a JSON body worth printing
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		fmt.Fprintf(out, "HTTP %d\n", code)
	}
	return printJSON(out, resp.Body())
}

// printJSON re-indents the body with sorted keys.
func printJSON(out io.Writer, body []byte) error {
	var v map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	pretty, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(pretty))
	return err
}
