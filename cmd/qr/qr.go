package qr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/AhmadFauzi003/backend-eddsa/internal/config"
	"github.com/AhmadFauzi003/backend-eddsa/internal/docsign"
	qrcodec "github.com/AhmadFauzi003/backend-eddsa/internal/docsign/qr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "QR verification payload encoding and decoding",
	}

	cmd.AddCommand(newEncodeCmd())
	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newResolveCmd())
	return cmd
}

func newEngine(ctx context.Context) *docsign.Engine {
	engine, err := docsign.NewEngine(ctx, config.DefaultServiceConfigFromEnv())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize engine")
	}
	return engine
}

func newEncodeCmd() *cobra.Command {
	var sessionID string
	var outPath string
	var pngSize int
	var metadata map[string]string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a completed session's aggregate into a QR payload",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			agg, err := engine.Sessions.CreateAggregate(ctx, sessionID)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create aggregate")
			}

			payload, err := engine.Codec.Encode(ctx, qrcodec.FromAggregate(agg), metadata)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to encode payload")
			}

			if outPath != "" {
				png, err := qrcodec.RenderPNG(payload, pngSize)
				if err != nil {
					log.Fatal().Err(err).Msg("Failed to render QR code")
				}
				if err := os.WriteFile(outPath, png, 0644); err != nil {
					log.Fatal().Err(err).Msg("Failed to write QR image")
				}
				log.Info().Str("path", outPath).Msg("QR image written")
			}

			printResult(map[string]interface{}{
				"type":    payload.Type,
				"payload": json.RawMessage(payload.Encoded),
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Completed session ID")
	cmd.Flags().StringVar(&outPath, "out", "", "Write a QR PNG to this path")
	cmd.Flags().IntVar(&pngSize, "size", 512, "QR image size in pixels")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "Metadata entries to embed, key=value")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newDecodeCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode and classify a QR payload",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			data, err := os.ReadFile(inPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read payload file")
			}

			payload, err := engine.Codec.Decode(data)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to decode payload")
			}

			printResult(map[string]interface{}{
				"type":      payload.Type,
				"embedded":  payload.Embedded,
				"reference": payload.Reference,
			})
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "Path to the payload JSON file")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func newValidateCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Structurally validate a QR payload",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			data, err := os.ReadFile(inPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read payload file")
			}

			payload, err := engine.Codec.Decode(data)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to decode payload")
			}

			if err := engine.Codec.Validate(payload); err != nil {
				log.Fatal().Err(err).Msg("Payload failed structural validation")
			}

			printResult(map[string]interface{}{"type": payload.Type, "valid": true})
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "Path to the payload JSON file")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func newResolveCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Fetch the full payload behind a reference token",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			engine := newEngine(ctx)

			full, err := engine.Codec.Resolve(ctx, &qrcodec.ReferencePayload{
				Type:  qrcodec.TypeReference,
				Token: token,
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to resolve payload")
			}
			printResult(full)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Reference token")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func printResult(data interface{}) {
	out, err := json.MarshalIndent(docsign.OKResult(data), "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal result")
	}
	fmt.Println(string(out))
}
