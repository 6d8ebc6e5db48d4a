package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/divyekant/docportal/internal/catalog"
	"github.com/divyekant/docportal/internal/chat"
	"github.com/divyekant/docportal/pkg/docportal"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <documentId> <message>",
		Short: "Ask the assistant about one catalog document",
		Args:  cobra.ExactArgs(2),
		RunE:  runChat,
	}
	cmd.Flags().String("history", "", "JSON file holding prior turns: [{\"role\":\"user\",\"content\":\"...\"}]")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return fmt.Errorf("document id must be a positive integer, got %q", args[0])
	}

	history, err := readHistory(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	entries, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	entry, ok := catalog.Find(entries, id)
	if !ok {
		return fmt.Errorf("document %d is not in %s", id, cfg.CatalogPath)
	}

	relay, err := docportal.NewRelay(cmd.Context(), cfg, func(int) (catalog.Entry, bool) { return entry, true }, nil)
	if err != nil {
		return err
	}

	reply, err := relay.Send(cmd.Context(), chat.Request{DocumentID: id, Message: args[1], History: history})
	if err != nil {
		return err
	}

	writeOutput(cmd, map[string]any{"documentId": id, "role": "assistant", "content": reply}, func() {
		fmt.Printf("%s%s%s%s\n\n", bold, cyan, entry.Title, reset)
		fmt.Println(reply)
	})
	return nil
}

func readHistory(cmd *cobra.Command) ([]chat.Turn, error) {
	path, _ := cmd.Flags().GetString("history")
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var turns []chat.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return turns, nil
}
