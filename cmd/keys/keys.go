package keys

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/signature"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Signer keypair management",
	}

	cmd.AddCommand(newGenCmd())
	cmd.AddCommand(newRevokeCmd())
	return cmd
}

func newGenCmd() *cobra.Command {
	var role string
	var name string
	var email string
	var outPath string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a fresh Ed25519 keypair for a signer role",
		Run: func(cmd *cobra.Command, args []string) {
			r, err := signature.ParseRole(role)
			if err != nil {
				log.Fatal().Err(err).Msg("Invalid signer role")
			}

			kp, err := signature.GenerateKeyPair(r, name, email)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to generate keypair")
			}

			kf := kp.ToKeyFile()
			if outPath != "" {
				if err := writeKeyFile(outPath, kf); err != nil {
					log.Fatal().Err(err).Msg("Failed to write key file")
				}
				log.Info().Str("path", outPath).Msg("Key file written")
			}
			printResult(kf)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Signer role (dosen, kaprodi, dekan, rektor, pembimbing, penguji)")
	cmd.Flags().StringVar(&name, "name", "", "Owner name")
	cmd.Flags().StringVar(&email, "email", "", "Owner email")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the key file to this path")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newRevokeCmd() *cobra.Command {
	var keyPath string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Mark a key file as revoked so signing commands refuse it",
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(keyPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read key file")
			}

			kp, err := signature.LoadKeyFile(data)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load key file")
			}
			kp.Revoke()

			kf := kp.ToKeyFile()
			if err := writeKeyFile(keyPath, kf); err != nil {
				log.Fatal().Err(err).Msg("Failed to write key file")
			}
			printResult(kf)
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "Path to the key file")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func writeKeyFile(path string, kf *signature.KeyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func printResult(data interface{}) {
	out, err := json.MarshalIndent(docsign.OKResult(data), "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal result")
	}
	fmt.Println(string(out))
}
