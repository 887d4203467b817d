package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/logilink/core"
	"github.com/poiesic/logilink/prompt"
	"github.com/urfave/cli/v2"
)

// parseLanguage accepts an empty value; anything else must be a supported locale.
func parseLanguage(s string) (core.Locale, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return core.ParseLocale(s)
}

// buildRequest assembles a reasoning request from raw flag values.
// A zero shipment id means no shipment.
func buildRequest(query string, shipment uint64, language string) (core.ReasoningRequest, error) {
	lang, err := parseLanguage(language)
	if err != nil {
		return core.ReasoningRequest{}, err
	}
	req := core.ReasoningRequest{Query: query, Language: lang}
	if shipment != 0 {
		id := core.ID(shipment)
		req.ShipmentID = &id
	}
	return req, core.ValidateRequest(&req)
}

func askCommand(c *cli.Context) error {
	req, err := buildRequest(c.String("query"), c.Uint64("shipment"), c.String("language"))
	if err != nil {
		return err
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	orchestrator, err := rt.newOrchestrator()
	if err != nil {
		return err
	}
	answer, err := orchestrator.Answer(c.Context, req)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, answer)
}

func voiceCommand(c *cli.Context) error {
	lang, err := parseLanguage(c.String("language"))
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return err
	}

	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	handler, err := rt.db.NewVoiceHandler(rt.orchestratorOptions()...)
	if err != nil {
		return err
	}

	if c.Bool("base64") {
		result, err := handler.HandleBase64(c.Context, string(data), lang)
		if err != nil {
			return err
		}
		return writeJSON(c.App.Writer, result)
	}
	result, err := handler.HandleAudio(c.Context, data, lang)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, result)
}

func searchCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	searcher, err := rt.newSearcher()
	if err != nil {
		return err
	}
	hits, err := searcher.Search(c.Context, c.String("query"), c.Int("limit"), c.Float64("threshold"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, prompt.RenderCitations(hits))
	return err
}
