package main

// Command-line harness for the amss package: generate a keypair, sign a
// message, verify a signature, or benchmark key generation and signing.
// Exits 0 on success and nonzero with a diagnostic on stderr otherwise.

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/amss-go/amss"
)

func defaultConfig() amss.Config {
	hc, _ := amss.NewHashConfig(amss.SHA2, 32)
	return amss.Config{Hash: hc, W: 16, Height: 10, Mode: amss.FractalHalf}
}

func digestOf(path string) ([]byte, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func cmdGenerateKey(c *cli.Context) error {
	cfg := defaultConfig()
	a, err := amss.GenerateKeyPair(cfg)
	if err != nil {
		return err
	}
	pub := a.PubKey()
	buf, err := pub.MarshalBinary()
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = "amss.pub"
	}
	if err := ioutil.WriteFile(out, buf, 0600); err != nil {
		return err
	}
	fmt.Printf("public key written to %s (%d bytes)\n", out, len(buf))
	return nil
}

func cmdSignMessage(c *cli.Context) error {
	msgPath := c.Args().Get(0)
	if msgPath == "" {
		return errUsage("sign-message requires a message file argument")
	}
	digest, err := digestOf(msgPath)
	if err != nil {
		return err
	}
	cfg := defaultConfig()
	a, err := amss.GenerateKeyPair(cfg)
	if err != nil {
		return err
	}
	sig, err := a.Sign(digest)
	if err != nil {
		return err
	}
	buf, err := sig.MarshalBinary(cfg)
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(buf))
	return nil
}

func cmdVerifyMessage(c *cli.Context) error {
	msgPath := c.Args().Get(0)
	sigHex := c.Args().Get(1)
	if msgPath == "" || sigHex == "" {
		return errUsage("verify-message requires a message file and a hex signature")
	}
	digest, err := digestOf(msgPath)
	if err != nil {
		return err
	}
	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return err
	}
	cfg := defaultConfig()
	var sig amss.Signature
	if err := sig.UnmarshalBinary(cfg, sigBytes); err != nil {
		return err
	}
	pubHex := c.String("pubkey")
	if pubHex == "" {
		return errUsage("verify-message requires --pubkey")
	}
	pubBytes, err := hex.DecodeString(pubHex)
	if err != nil {
		return err
	}
	var pub amss.PubKey
	if err := pub.UnmarshalBinary(pubBytes); err != nil {
		return err
	}
	ok, err := amss.Verify(pub, digest, &sig)
	if err != nil {
		return err
	}
	if !ok {
		return errUsage("signature does not verify")
	}
	fmt.Println("OK")
	return nil
}

func cmdBenchmark(c *cli.Context) error {
	cfg := defaultConfig()
	start := time.Now()
	a, err := amss.GenerateKeyPair(cfg)
	if err != nil {
		return err
	}
	genElapsed := time.Since(start)

	digest := make([]byte, cfg.Hash.N())
	n := c.Int("signatures")
	if n <= 0 {
		n = 16
	}
	start = time.Now()
	for i := 0; i < n; i++ {
		digest[0] = byte(i)
		if _, err := a.Sign(digest); err != nil {
			return err
		}
	}
	signElapsed := time.Since(start)

	fmt.Printf("keygen:  %s\n", genElapsed)
	fmt.Printf("sign x%d: %s (%s/sig)\n", n, signElapsed, signElapsed/time.Duration(n))
	fmt.Printf("oracle calls: %d\n", cfg.Hash.CallCount())
	return nil
}

type errUsage string

func (e errUsage) Error() string { return string(e) }

func main() {
	app := cli.NewApp()
	app.Name = "amss"
	app.Usage = "generate, sign and verify with a fractal hash-based signature scheme"

	app.Commands = []cli.Command{
		{
			Name:   "generate-key",
			Usage:  "generate a new keypair and write the public key",
			Flags:  []cli.Flag{cli.StringFlag{Name: "out"}},
			Action: cmdGenerateKey,
		},
		{
			Name:      "sign-message",
			Usage:     "sign a message file with a freshly generated keypair",
			ArgsUsage: "<message-file>",
			Action:    cmdSignMessage,
		},
		{
			Name:      "verify-message",
			Usage:     "verify a hex-encoded signature against a message file",
			ArgsUsage: "<message-file> <signature-hex>",
			Flags:     []cli.Flag{cli.StringFlag{Name: "pubkey"}},
			Action:    cmdVerifyMessage,
		},
		{
			Name:   "benchmark",
			Usage:  "measure key generation and signing throughput",
			Flags:  []cli.Flag{cli.IntFlag{Name: "signatures", Value: 16}},
			Action: cmdBenchmark,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "amss: %s\n", err)
		os.Exit(1)
	}
}
