package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwoolworth/doccoll"
	"github.com/dwoolworth/doccoll/people"
)

var (
	createName string
	createAge  int
	createTags []string

	findName string
	findFood string
	findID   string

	addFoodID   string
	addFoodFood string

	setAgeName string
	setAgeAge  int

	removeID   string
	removeName string

	queryFood string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a person",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &people.Person{Name: createName, Age: createAge, Tags: createTags}
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			saved, err := svc.CreateAndSave(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		})
	},
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find people by --name, one person by --food, or one by --id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := exactlyOne(map[string]string{"name": findName, "food": findFood, "id": findID}); err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			switch {
			case findName != "":
				found, err := svc.FindByName(ctx, findName)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), found)
			case findFood != "":
				found, err := svc.FindOneByFood(ctx, findFood)
				if err != nil {
					return err
				}
				return printOne(cmd, found)
			default:
				id, err := doccoll.ParseID(findID)
				if err != nil {
					return err
				}
				found, err := svc.FindByID(ctx, id)
				if err != nil {
					return err
				}
				return printOne(cmd, found)
			}
		})
	},
}

var addFoodCmd = &cobra.Command{
	Use:   "add-food",
	Short: "Append a favourite food to a person (fetch, edit, save)",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := doccoll.ParseID(addFoodID)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			saved, err := svc.AddFavoriteFood(ctx, id, addFoodFood)
			if people.IsNotFound(err) {
				return fmt.Errorf("no person with id %s", addFoodID)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		})
	},
}

var setAgeCmd = &cobra.Command{
	Use:   "set-age",
	Short: "Atomically set the age of one person found by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			updated, err := svc.SetAgeByName(ctx, setAgeName, setAgeAge)
			if err != nil {
				return err
			}
			return printOne(cmd, updated)
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove one person by --id or everyone with --name",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := exactlyOne(map[string]string{"id": removeID, "name": removeName}); err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			if removeName != "" {
				summary, err := svc.RemoveManyByName(ctx, removeName)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int64{"deleted": summary.DeletedCount})
			}
			id, err := doccoll.ParseID(removeID)
			if err != nil {
				return err
			}
			removed, err := svc.RemoveByID(ctx, id)
			if err != nil {
				return err
			}
			return printOne(cmd, removed)
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Two people who like --food, sorted by name, without their age",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			found, err := svc.QueryChain(ctx, queryFood)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), found)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count people per favourite food",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			counts, err := svc.TagCounts(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), counts)
		})
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the indexes the Person model declares",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *people.Service) error {
			created, err := svc.EnsureIndexes(ctx)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All indexes present.")
				return nil
			}
			for _, name := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
			}
			return nil
		})
	},
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "name (required)")
	createCmd.Flags().IntVar(&createAge, "age", 0, "age")
	createCmd.Flags().StringSliceVar(&createTags, "tag", nil, "favourite food, repeatable")

	findCmd.Flags().StringVar(&findName, "name", "", "find everyone with this name")
	findCmd.Flags().StringVar(&findFood, "food", "", "find one person who likes this food")
	findCmd.Flags().StringVar(&findID, "id", "", "find by id")

	addFoodCmd.Flags().StringVar(&addFoodID, "id", "", "person id")
	addFoodCmd.Flags().StringVar(&addFoodFood, "food", "hamburger", "food to add")
	_ = addFoodCmd.MarkFlagRequired("id")

	setAgeCmd.Flags().StringVar(&setAgeName, "name", "", "name to match")
	setAgeCmd.Flags().IntVar(&setAgeAge, "age", 20, "age to set")
	_ = setAgeCmd.MarkFlagRequired("name")

	removeCmd.Flags().StringVar(&removeID, "id", "", "remove one person by id")
	removeCmd.Flags().StringVar(&removeName, "name", "", "remove everyone with this name")

	queryCmd.Flags().StringVar(&queryFood, "food", "burrito", "food to search for")
}

// printOne prints a document or "null" when it is absent.
func printOne(cmd *cobra.Command, p *people.Person) error {
	if p == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "null")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), p)
}

func exactlyOne(opts map[string]string) error {
	set := 0
	for _, v := range opts {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		names := make([]string, 0, len(opts))
		for k := range opts {
			names = append(names, "--"+k)
		}
		slices.Sort(names)
		return errors.New("exactly one of " + strings.Join(names, ", ") + " is required")
	}
	return nil
}
