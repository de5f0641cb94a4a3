package sign

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/hash"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign/signature"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Single-signer document signing and verification",
	}

	cmd.AddCommand(newDocumentCmd())
	cmd.AddCommand(newVerifyCmd())
	return cmd
}

// signatureFile is the on-disk interchange format between sign and verify.
type signatureFile struct {
	Signature   string    `json:"signature"`
	PublicKey   string    `json:"public_key"`
	Role        string    `json:"role"`
	MessageHash string    `json:"message_hash"`
	SignedAt    time.Time `json:"signed_at"`
}

func newDocumentCmd() *cobra.Command {
	var docPath string
	var keyPath string
	var seedHex string
	var role string

	cmd := &cobra.Command{
		Use:   "document",
		Short: "Sign a document's canonical hash",
		Run: func(cmd *cobra.Command, args []string) {
			doc, err := readDocument(docPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read document")
			}

			seed, r, err := signerKey(keyPath, seedHex, role)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load signing key")
			}

			sig, err := signature.SignDocument(doc, seed, r)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to sign document")
			}

			printResult(signatureFile{
				Signature:   hex.EncodeToString(sig.Bytes),
				PublicKey:   hex.EncodeToString(sig.SignerPublicKey),
				Role:        string(sig.SignerRole),
				MessageHash: sig.MessageHash.Hex(),
				SignedAt:    sig.SignedAt,
			})
		},
	}

	cmd.Flags().StringVar(&docPath, "doc", "", "Path to the document JSON file")
	cmd.Flags().StringVar(&keyPath, "key", "", "Path to a key file from keys gen")
	cmd.Flags().StringVar(&seedHex, "seed", "", "Hex-encoded private seed, with --role")
	cmd.Flags().StringVar(&role, "role", "", "Signer role, with --seed")
	_ = cmd.MarkFlagRequired("doc")

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
	var docPath string
	var sigPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a document signature, detecting tampering",
		Run: func(cmd *cobra.Command, args []string) {
			doc, err := readDocument(docPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read document")
			}

			sig, err := readSignature(sigPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read signature")
			}

			verdict, err := signature.VerifyDocumentSignature(doc, sig)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to verify signature")
			}

			printResult(verdict)
		},
	}

	cmd.Flags().StringVar(&docPath, "doc", "", "Path to the document JSON file")
	cmd.Flags().StringVar(&sigPath, "sig", "", "Path to the signature JSON file")
	_ = cmd.MarkFlagRequired("doc")
	_ = cmd.MarkFlagRequired("sig")

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

func readSignature(path string) (*signature.Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read signature file")
	}

	var sf signatureFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrap(err, "signature file is not valid JSON")
	}

	sigBytes, err := hex.DecodeString(sf.Signature)
	if err != nil {
		return nil, errors.Wrap(err, "signature is not valid hex")
	}
	pub, err := hex.DecodeString(sf.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "public key is not valid hex")
	}
	msgHash, err := hash.ParseHex(sf.MessageHash)
	if err != nil {
		return nil, errors.Wrap(err, "invalid message hash")
	}

	return &signature.Signature{
		Bytes:           sigBytes,
		SignerRole:      signature.Role(sf.Role),
		SignerPublicKey: pub,
		SignedAt:        sf.SignedAt,
		MessageHash:     msgHash,
	}, nil
}

func printResult(data interface{}) {
	out, err := json.MarshalIndent(docsign.OKResult(data), "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal result")
	}
	fmt.Println(string(out))
}
