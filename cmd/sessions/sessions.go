package sessions

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/session"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/signature"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Threshold multi-signature session management",
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newProgressCmd())
	cmd.AddCommand(newCancelCmd())
	cmd.AddCommand(newAggregateCmd())
	return cmd
}

func newEngine(ctx context.Context) *docsign.Engine {
	engine, err := docsign.NewEngine(ctx, config.DefaultServiceConfigFromEnv())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize engine")
	}
	return engine
}

// parseSigner parses "role:name:email[:optional]" into a required signer.
func parseSigner(spec string) (session.RequiredSigner, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return session.RequiredSigner{}, errors.Errorf("signer spec %q must be role:name:email[:optional]", spec)
	}

	role, err := signature.ParseRole(parts[0])
	if err != nil {
		return session.RequiredSigner{}, err
	}

	signer := session.RequiredSigner{
		Role:     role,
		Name:     parts[1],
		Email:    parts[2],
		Required: true,
	}
	if len(parts) > 3 && parts[3] == "optional" {
		signer.Required = false
	}
	return signer, nil
}

func newInitCmd() *cobra.Command {
	var docPath string
	var signerSpecs []string
	var threshold int

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a signing session over a document",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			doc, err := readDocument(docPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read document")
			}

			docHash, err := hash.Bind(doc)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to hash document")
			}

			signers := make([]session.RequiredSigner, 0, len(signerSpecs))
			for _, spec := range signerSpecs {
				signer, err := parseSigner(spec)
				if err != nil {
					log.Fatal().Err(err).Msg("Invalid signer spec")
				}
				signers = append(signers, signer)
			}

			sess, err := engine.Sessions.Initialize(ctx, doc.ID, docHash, signers, threshold)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize session")
			}

			if err := engine.SaveDocument(ctx, doc, sess.SessionID); err != nil {
				log.Fatal().Err(err).Msg("Failed to store document")
			}

			printResult(sess)
		},
	}

	cmd.Flags().StringVar(&docPath, "doc", "", "Path to the document JSON file")
	cmd.Flags().StringArrayVar(&signerSpecs, "signer", nil, "Required signer as role:name:email[:optional], repeatable")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Signature threshold (0 selects the configured default)")
	_ = cmd.MarkFlagRequired("doc")
	_ = cmd.MarkFlagRequired("signer")

	return cmd
}

func newAddCmd() *cobra.Command {
	var sessionID string
	var keyPath string
	var role string
	var seedHex string
	var name string
	var email string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one role's signature to a session",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			seed, r, err := signerKey(keyPath, seedHex, role)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load signing key")
			}

			sess, err := engine.Sessions.AddSignature(ctx, sessionID, r, seed, session.SignerInfo{
				Name:  name,
				Email: email,
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to add signature")
			}

			printResult(sess)
		},
	}

	cmd.Flags().StringVar(&sessionID, "id", "", "Session ID")
	cmd.Flags().StringVar(&keyPath, "key", "", "Path to a key file from keys gen")
	cmd.Flags().StringVar(&role, "role", "", "Signer role, with --seed")
	cmd.Flags().StringVar(&seedHex, "seed", "", "Hex-encoded private seed, with --role")
	cmd.Flags().StringVar(&name, "name", "", "Signer name override")
	cmd.Flags().StringVar(&email, "email", "", "Signer email override")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// signerKey resolves the signing key from either a key file or a raw seed.
// Key files carry a status; revoked keys are refused on load.
func signerKey(keyPath, seedHex, role string) ([]byte, signature.Role, error) {
	if keyPath != "" {
		data, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to read key file")
		}
		kp, err := signature.LoadKeyFile(data)
		if err != nil {
			return nil, "", err
		}
		return kp.Seed(), kp.Role, nil
	}

	if seedHex == "" || role == "" {
		return nil, "", errors.New("either --key or both --seed and --role are required")
	}
	r, err := signature.ParseRole(role)
	if err != nil {
		return nil, "", err
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, "", errors.Wrap(err, "private seed is not valid hex")
	}
	return seed, r, nil
}

func newVerifyCmd() *cobra.Command {
	var sessionID string
	var docPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify every signature of a session against a document",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			var doc *hash.Document
			var err error
			if docPath != "" {
				doc, err = readDocument(docPath)
			} else {
				sess, getErr := engine.Sessions.Get(ctx, sessionID)
				if getErr != nil {
					log.Fatal().Err(getErr).Msg("Failed to load session")
				}
				doc, err = engine.LoadDocument(ctx, sess.DocumentID)
			}
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load document")
			}

			result, err := engine.Sessions.VerifySession(ctx, sessionID, doc)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to verify session")
			}

			printResult(result)
		},
	}

	cmd.Flags().StringVar(&sessionID, "id", "", "Session ID")
	cmd.Flags().StringVar(&docPath, "doc", "", "Document JSON file (defaults to the stored document)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newProgressCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show signing progress of a session",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			p, err := engine.Sessions.Progress(ctx, sessionID)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to get session progress")
			}
			printResult(p)
		},
	}

	cmd.Flags().StringVar(&sessionID, "id", "", "Session ID")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newCancelCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a pending session",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			sess, err := engine.Sessions.Cancel(ctx, sessionID)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to cancel session")
			}
			printResult(sess)
		},
	}

	cmd.Flags().StringVar(&sessionID, "id", "", "Session ID")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newAggregateCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Export the ordered signature set of a completed session",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			agg, err := engine.Sessions.CreateAggregate(ctx, sessionID)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create aggregate")
			}
			printResult(agg)
		},
	}

	cmd.Flags().StringVar(&sessionID, "id", "", "Session ID")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func readDocument(path string) (*hash.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read document file")
	}

	var doc hash.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "document file is not valid JSON")
	}
	return &doc, nil
}

func printResult(data interface{}) {
	out, err := json.MarshalIndent(docsign.OKResult(data), "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal result")
	}
	fmt.Println(string(out))
}
