package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/runger/wardrobe/internal/outfits/inventory"
)

var (
	addType           string
	addColor          string
	addSecondary      string
	addPattern        string
	addFormality      string
	addWeight         string
	addImage          string
	addClassification string

	listType      string
	listLaundry   bool
	listClean     bool
	listFavorites bool
	listForgotten int
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a clothing item",
	Long: `Add a clothing item to the wardrobe.

Attributes come from flags, from a classifier result (--classification),
or both; flags win over the classifier. Adding the same image twice is
detected by its content hash.

Examples:
  wardrobe add --type top --color "#000080"
  wardrobe add --type dress --pattern floral --formality formal --weight light
  classify shirt.jpg | wardrobe add --image shirt.jpg --classification -`,
	GroupID: groupWardrobe,
	Args:    cobra.NoArgs,
	RunE:    runAdd,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List clothing items",
	GroupID: groupWardrobe,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var laundryCmd = &cobra.Command{
	Use:     "laundry ITEM_ID...",
	Short:   "Toggle items in or out of the laundry",
	GroupID: groupWardrobe,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runLaundry,
}

var favoriteCmd = &cobra.Command{
	Use:     "favorite ITEM_ID",
	Short:   "Toggle an item's favorite flag",
	GroupID: groupWardrobe,
	Args:    cobra.ExactArgs(1),
	RunE:    runFavorite,
}

var removeCmd = &cobra.Command{
	Use:     "remove ITEM_ID",
	Aliases: []string{"rm"},
	Short:   "Remove an item from the wardrobe",
	GroupID: groupWardrobe,
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	f := addCmd.Flags()
	f.StringVarP(&addType, "type", "t", "", "clothing type: top, bottom, dress, shoes, outerwear")
	f.StringVarP(&addColor, "color", "c", "", "primary color as #rrggbb")
	f.StringVar(&addSecondary, "secondary", "", "secondary color as #rrggbb")
	f.StringVarP(&addPattern, "pattern", "p", "", "solid, striped, checkered, floral or printed")
	f.StringVarP(&addFormality, "formality", "f", "", "casual, business-casual, formal or athletic")
	f.StringVarP(&addWeight, "weight", "w", "", "light, medium or heavy")
	f.StringVar(&addImage, "image", "", "photo of the item")
	f.StringVar(&addClassification, "classification", "", "classifier JSON file, or - for stdin")

	lf := listCmd.Flags()
	lf.StringVarP(&listType, "type", "t", "", "only items of this type")
	lf.BoolVar(&listLaundry, "laundry", false, "only items in the laundry")
	lf.BoolVar(&listClean, "clean", false, "only items not in the laundry")
	lf.BoolVar(&listFavorites, "favorites", false, "only favorites")
	lf.IntVar(&listForgotten, "forgotten", 0, "only items not worn in this many days")

	rootCmd.AddCommand(addCmd, listCmd, laundryCmd, favoriteCmd, removeCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	item, err := buildItem(cmd)
	if err != nil {
		return err
	}

	if addImage != "" {
		hash, err := hashFile(addImage)
		if err != nil {
			return err
		}
		item.ImageHash = hash
		if abs, err := filepath.Abs(addImage); err == nil {
			item.ImagePath = abs
		}
	}

	return withApp(cmd.Context(), func(a *app) error {
		out := cmd.OutOrStdout()
		if item.ImageHash != "" {
			existing, err := a.items.FindByImageHash(cmd.Context(), item.ImageHash)
			if err == nil {
				fmt.Fprintf(out, "%sAlready in wardrobe:%s %s\n", colorYellow, colorReset, describeItem(existing))
				return nil
			}
			if !errors.Is(err, inventory.ErrItemNotFound) {
				return err
			}
		}

		id, err := a.items.Add(cmd.Context(), item)
		if err != nil {
			return err
		}
		stored, err := a.items.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%sAdded%s %s\n", colorGreen, colorReset, describeItem(stored))
		return nil
	})
}

// buildItem merges the classifier result with the flags. A flag that was
// set explicitly always wins.
func buildItem(cmd *cobra.Command) (inventory.ClothingItem, error) {
	var item inventory.ClothingItem
	if addClassification != "" {
		data, err := readInput(cmd, addClassification)
		if err != nil {
			return item, err
		}
		c, err := inventory.ParseClassification(data)
		if err != nil {
			return item, err
		}
		if item, err = inventory.ItemFromClassification(c, addImage); err != nil {
			return item, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("type") || item.Type == "" {
		t, ok := inventory.ParseClothingType(addType)
		if !ok {
			return item, fmt.Errorf("%w: clothing type %q (want top, bottom, dress, shoes or outerwear)",
				inventory.ErrInvalidItem, addType)
		}
		item.Type = t
	}
	if flags.Changed("color") {
		item.ColorPrimary = addColor
	}
	if flags.Changed("secondary") {
		item.ColorSecondary = addSecondary
	}
	if flags.Changed("pattern") {
		item.Pattern = inventory.ParsePattern(addPattern)
	}
	if flags.Changed("formality") {
		item.Formality = inventory.ParseFormality(addFormality)
	}
	if flags.Changed("weight") {
		item.SeasonWeight = inventory.ParseSeasonWeight(addWeight)
	}
	return item, nil
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func runList(cmd *cobra.Command, args []string) error {
	if listLaundry && listClean {
		return errors.New("--laundry and --clean are mutually exclusive")
	}
	filter := inventory.Filter{
		ExcludeLaundry: listClean,
		OnlyLaundry:    listLaundry,
		OnlyFavorites:  listFavorites,
	}
	if listType != "" {
		t, ok := inventory.ParseClothingType(listType)
		if !ok {
			return fmt.Errorf("unknown clothing type %q", listType)
		}
		filter.Type = t
	}

	return withApp(cmd.Context(), func(a *app) error {
		var (
			items []inventory.ClothingItem
			err   error
		)
		if listForgotten > 0 {
			items, err = a.items.Forgotten(cmd.Context(), listForgotten, 50)
		} else {
			items, err = a.items.List(cmd.Context(), filter)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "No items.")
			return nil
		}
		width := termWidth()
		for _, it := range items {
			var flags string
			if it.Favorite {
				flags += " ★"
			}
			if it.InLaundry {
				flags += colorDim + " (laundry)" + colorReset
			}
			worn := fmt.Sprintf("worn %d×", it.TimesWorn)
			fmt.Fprintf(out, "%s %s  %s%s\n", swatch(it.ColorPrimary),
				truncate(describeItem(it), width-30), colorDim+worn+colorReset, flags)
		}
		return nil
	})
}

func runLaundry(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		for _, id := range ids {
			in, err := a.items.ToggleLaundry(cmd.Context(), id)
			if err != nil {
				return err
			}
			state := "out of the laundry"
			if in {
				state = "in the laundry"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d is now %s\n", id, state)
		}
		return nil
	})
}

func runFavorite(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		fav, err := a.items.ToggleFavorite(cmd.Context(), id)
		if err != nil {
			return err
		}
		if fav {
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d marked as favorite\n", id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Item %d is no longer a favorite\n", id)
		}
		return nil
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.items.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed item %d\n", id)
		return nil
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
