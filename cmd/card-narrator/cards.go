// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/card-narrator/internal/cards"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Card-name utilities",
}

var cardsRenameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Copy descriptions to canonical NN_card_name file names",
	Long: `Rename copies every Markdown file in --src whose name resolves to a Major
Arcana card into --dst as NN_<card>.md (NN_<card>_r.md for reversed cards).
Names are matched against the English or Italian deck, ignoring case,
accents, leading articles and an existing number prefix.

Sources are left untouched. When two files resolve to the same card the
later copy gets a __1, __2, ... suffix.`,
	RunE: runCardsRename,
}

func runCardsRename(cmd *cobra.Command, args []string) error {
	src, _ := cmd.Flags().GetString("src")
	dst, _ := cmd.Flags().GetString("dst")
	deckName, _ := cmd.Flags().GetString("deck")

	deck, err := cards.ParseDeck(deckName)
	if err != nil {
		return err
	}
	_, err = cards.Rename(src, dst, deck, os.Stdout)
	return err
}

func init() {
	cardsRenameCmd.Flags().String("src", "", "directory of descriptions to rename")
	cardsRenameCmd.Flags().String("dst", "", "directory to copy canonical names into")
	cardsRenameCmd.Flags().String("deck", string(cards.DeckEnglish), "card-name table: en or it")
	cardsRenameCmd.MarkFlagRequired("src")
	cardsRenameCmd.MarkFlagRequired("dst")

	cardsCmd.AddCommand(cardsRenameCmd)
	rootCmd.AddCommand(cardsCmd)
}
