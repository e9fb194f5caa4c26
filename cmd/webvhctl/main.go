// Command webvhctl is a thin convenience CLI over the did:webvh core: it
// creates and resolves a log file on disk. It is not part of the protocol
// core — key storage, HTTP resolution, and production key management stay
// outside it — so this tool keeps an ephemeral in-memory signer only, and
// its update and deactivate subcommands refuse to run because no signing
// key survives the create call.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/multiformats/go-multibase"

	"github.com/Mindburn-Labs/didwebvh/pkg/config"
	"github.com/Mindburn-Labs/didwebvh/pkg/diddoc"
	"github.com/Mindburn-Labs/didwebvh/pkg/signing"
	"github.com/Mindburn-Labs/didwebvh/pkg/webvh"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split out from main for testability.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "usage: webvhctl <create|resolve|update|deactivate> [flags]")
		return 2
	}

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "create":
		err = runCreate(rest, stdout)
	case "resolve":
		err = runResolve(rest, stdout)
	case "update":
		err = runUpdate(rest, stdout)
	case "deactivate":
		err = runDeactivate(rest, stdout)
	default:
		fmt.Fprintf(stderr, "unknown subcommand %q\n", cmd)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "webvhctl:", err)
		return 1
	}
	return 0
}

func runCreate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	domain := fs.String("domain", "", "web host the DID log is served from")
	out := fs.String("out", "did.jsonl", "log file to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *domain == "" {
		return fmt.Errorf("-domain is required")
	}

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate signer: %w", err)
	}
	pub, err := multibase.Encode(multibase.Base58BTC, pubKey)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}
	vmID := "did:key:" + pub + "#" + pub
	signer := signing.NewEd25519SignerFromKey(privKey, vmID)

	doc := diddoc.Document{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		VerificationMethod: []diddoc.VerificationMethod{
			{ID: vmID, Type: "Multikey", PublicKeyMultibase: pub},
		},
		Authentication: []string{vmID},
	}

	result, err := webvh.CreateDID(context.Background(), webvh.CreateParams{
		Domain:    *domain,
		Delta:     diddoc.Parameters{UpdateKeys: []string{pub}},
		Document:  doc,
		Timestamp: time.Now(),
		Signer:    signer,
		Verifier:  signing.Ed25519Verifier{},
	})
	if err != nil {
		return err
	}

	raw, err := webvh.SerializeLog(result.Log)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	fmt.Fprintf(stdout, "created %s (wrote %s)\n", result.DID, *out)
	return nil
}

func runResolve(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	logPath := fs.String("log", "did.jsonl", "log file to resolve")
	fast := fs.Bool("fast", false, "enable fast-resolution mode (skips interior proof verification)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, err := readLog(*logPath)
	if err != nil {
		return err
	}

	cfg := config.Load(config.WithFastResolution(*fast))
	resolved, err := webvh.ResolveDIDFromLog(context.Background(), log, webvh.ResolutionOptions{
		Verifier:       signing.Ed25519Verifier{},
		FastResolution: cfg.FastResolution,
	})
	if err != nil {
		return err
	}
	return printJSON(stdout, resolved)
}

func runUpdate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	logPath := fs.String("log", "did.jsonl", "log file to extend")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return fmt.Errorf("update requires a signer bound to the current updateKeys; invoke via the pkg/webvh API with your own key material — webvhctl does not persist signing keys (log %s unchanged)", *logPath)
}

func runDeactivate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("deactivate", flag.ContinueOnError)
	logPath := fs.String("log", "did.jsonl", "log file to deactivate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return fmt.Errorf("deactivate requires a signer bound to the current updateKeys; invoke via the pkg/webvh API with your own key material — webvhctl does not persist signing keys (log %s unchanged)", *logPath)
}

func readLog(path string) ([]diddoc.LogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return webvh.ParseLog(raw)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
