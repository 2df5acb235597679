package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/lugondev/go-umi/internal/eddsa"
)

func newKeypairCmd() *cobra.Command {
	keypairCmd := &cobra.Command{
		Use:   "keypair",
		Short: "Keypair and address commands",
		Long:  `Commands for generating keypairs, deriving program addresses and verifying signatures.`,
	}
	keypairCmd.AddCommand(newKeypairNewCmd(), newKeypairPdaCmd(), newKeypairVerifyCmd())
	return keypairCmd
}

func newKeypairNewCmd() *cobra.Command {
	var reveal bool
	var seedHex string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a new keypair",
		Long:  `Generate a new Ed25519 keypair. The secret key is only printed with --reveal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := eddsa.New()

			var (
				kp  *eddsa.Keypair
				err error
			)
			if seedHex != "" {
				seed, decodeErr := hex.DecodeString(seedHex)
				if decodeErr != nil {
					return fmt.Errorf("invalid seed: %w", decodeErr)
				}
				kp, err = engine.KeypairFromSeed(seed)
			} else {
				kp, err = engine.GenerateKeypair()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Public Key: %s\n", kp.PublicKey())
			if reveal {
				fmt.Fprintf(out, "Secret Key: %s\n", kp.ExportBase58())
				fmt.Fprintln(out, "\nWARNING: Save your secret key securely. Never share it with anyone!")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the base58 secret key")
	cmd.Flags().StringVar(&seedHex, "seed", "", "derive from a 32-byte hex seed")
	return cmd
}

func newKeypairPdaCmd() *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "pda [program-id] [seed...]",
		Short: "Derive a program address",
		Long:  `Find the program derived address and bump for the given program and seeds.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			programID, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid program id: %w", err)
			}

			seeds := make([][]byte, 0, len(args)-1)
			for _, arg := range args[1:] {
				seed, err := decodeSeed(arg, encoding)
				if err != nil {
					return err
				}
				seeds = append(seeds, seed)
			}

			pda, err := eddsa.New().FindPda(programID, seeds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Address: %s\n", pda.Address)
			fmt.Fprintf(out, "Bump:    %d\n", pda.Bump)
			return nil
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "utf8", "seed encoding (utf8, hex, base58)")
	return cmd
}

func decodeSeed(s, encoding string) ([]byte, error) {
	switch encoding {
	case "utf8", "":
		return []byte(s), nil
	case "hex":
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex seed %q: %w", s, err)
		}
		return b, nil
	case "base58":
		b, err := base58.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("invalid base58 seed %q: %w", s, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported seed encoding: %s", encoding)
	}
}

func newKeypairVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [public-key] [message] [signature]",
		Short: "Verify a signature",
		Long:  `Verify a base58 Ed25519 signature over a UTF-8 message.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid public key: %w", err)
			}
			sig, err := base58.Decode(args[2])
			if err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}

			if !eddsa.New().Verify([]byte(args[1]), sig, pk) {
				return fmt.Errorf("signature is not valid")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signature is valid")
			return nil
		},
	}
}
