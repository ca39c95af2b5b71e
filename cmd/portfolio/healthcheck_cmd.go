// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/duma799/portfolio/internal/platform/httpx"
)

func runHealthcheckCLI(args []string) int {
	return healthcheckMain(args, os.Stdout, os.Stderr)
}

func healthcheckMain(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "live", "healthcheck mode: live (default) or ready")
	addr := fs.String("addr", "localhost:8000", "API address to check")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := "/healthz"
	if *mode == "ready" {
		path = "/readyz"
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := checkHealth(ctx, httpx.NewClient(*timeout, httpx.WithUserAgent("portfolio-healthcheck")), "http://"+*addr+path); err != nil {
		fmt.Fprintf(stderr, "Healthcheck failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Healthcheck successful (%s)\n", *mode)
	return 0
}

func checkHealth(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status: %s", resp.Status)
	}
	return nil
}
