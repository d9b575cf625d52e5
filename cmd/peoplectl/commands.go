package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/peopledb/peopledb/internal/person"
	"github.com/peopledb/peopledb/internal/tokens"
	"github.com/peopledb/peopledb/pkg/logger"
	"github.com/spf13/cobra"
)

func samplePerson() *person.Person {
	return &person.Person{
		Name:          "Chinedu Nwogu",
		Age:           person.IntPtr(70),
		Club:          "Manchester United",
		FavoriteFoods: []string{"Rice", "Dodo"},
		ID:            "010",
	}
}

func samplePeople() []*person.Person {
	return []*person.Person{
		{Name: "Mary", Age: person.IntPtr(30), ID: "109", FavoriteFoods: []string{"Pasta"}},
		{Name: "Jane", Age: person.IntPtr(20), ID: "110", FavoriteFoods: []string{"Sushi", "Burritos"}},
		{Name: "Chioma", Age: person.IntPtr(35), ID: "111", FavoriteFoods: []string{"Rice", "Beans", "Dodo"}},
	}
}

// notFoundAsNull reports a missing record as a null result rather than a
// failure, so lookups print "null" like the other read commands.
func notFoundAsNull(p *person.Person, err error) (*person.Person, error) {
	if errors.Is(err, person.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create and save the sample person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.svc.Create(cmd.Context(), samplePerson())
			if err != nil {
				return err
			}
			return report(cmd, "Saved Person:", p)
		},
	}
}

func (a *app) createManyCmd() *cobra.Command {
	var file string
	c := &cobra.Command{
		Use:   "create-many",
		Short: "Create several people (the built-in samples, or a JSON array from --file)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			people := samplePeople()
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				people = nil
				if err := json.Unmarshal(b, &people); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
			}
			saved, err := a.svc.CreateMany(cmd.Context(), people)
			if err != nil {
				return err
			}
			return report(cmd, "Created Many People:", saved)
		},
	}
	c.Flags().StringVarP(&file, "file", "f", "", "JSON file holding an array of people")
	return c
}

func (a *app) findNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find-name NAME",
		Short: "Find all people with exactly this name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.svc.FindByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report(cmd, "Found People:", list)
		},
	}
}

func (a *app) findFoodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find-food FOOD",
		Short: "Find one person who likes FOOD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := notFoundAsNull(a.svc.FindOneByFavoriteFood(cmd.Context(), args[0]))
			if err != nil {
				return err
			}
			return report(cmd, "Found One Person:", p)
		},
	}
}

func (a *app) findIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find-id ID",
		Short: "Find a person by application id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := notFoundAsNull(a.svc.FindByID(cmd.Context(), args[0]))
			if err != nil {
				return err
			}
			return report(cmd, "Found Person by ID:", p)
		},
	}
}

func (a *app) addFoodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-food ID FOOD",
		Short: "Append FOOD to the favorites of the person with ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.AddFavoriteFood(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return report(cmd, "Updated Person:", p)
		},
	}
}

func (a *app) updateAgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-age NAME AGE",
		Short: "Set the age of the first person named NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			age, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("age must be an integer: %w", err)
			}
			p, err := a.svc.UpdateAgeByName(cmd.Context(), args[0], age)
			if err != nil {
				return err
			}
			return report(cmd, "Updated Person:", p)
		},
	}
}

func (a *app) deleteIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-id ID",
		Short: "Delete the person with application id ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.DeleteByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report(cmd, "Deleted Person:", p)
		},
	}
}

func (a *app) deleteNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-name NAME",
		Short: "Delete every person named NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.DeleteByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report(cmd, "Deleted Many People:", map[string]int64{"deletedCount": n})
		},
	}
}

func (a *app) burritosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "burritos",
		Short: "List up to two burrito lovers by name, without their age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.svc.QueryBurritoLovers(cmd.Context())
			if err != nil {
				return err
			}
			return report(cmd, "People Who Like Burritos:", list)
		},
	}
}

// demoCmd runs every operation once, in order, awaiting each before the
// next. A failing step is logged and the walkthrough continues.
func (a *app) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the full walkthrough of every operation in sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var failed []error
			step := func(name string, fn func() (string, interface{}, error)) {
				label, v, err := fn()
				if err != nil {
					logger.Errorf("%s: %v", name, err)
					failed = append(failed, fmt.Errorf("%s: %w", name, err))
					return
				}
				if err := report(cmd, label, v); err != nil {
					failed = append(failed, err)
				}
			}

			step("seed", func() (string, interface{}, error) {
				p, err := a.svc.Create(ctx, samplePerson())
				return "Saved Person:", p, err
			})
			step("create-many", func() (string, interface{}, error) {
				p, err := a.svc.CreateMany(ctx, samplePeople())
				return "Created Many People:", p, err
			})
			step("find-name", func() (string, interface{}, error) {
				p, err := a.svc.FindByName(ctx, "Mary")
				return "Found People:", p, err
			})
			step("find-food", func() (string, interface{}, error) {
				p, err := notFoundAsNull(a.svc.FindOneByFavoriteFood(ctx, "Sushi"))
				return "Found One Person:", p, err
			})
			step("find-id", func() (string, interface{}, error) {
				p, err := notFoundAsNull(a.svc.FindByID(ctx, "110"))
				return "Found Person by ID:", p, err
			})
			step("add-food", func() (string, interface{}, error) {
				p, err := a.svc.AddFavoriteFood(ctx, "010", "Hamburger")
				return "Updated Person:", p, err
			})
			step("update-age", func() (string, interface{}, error) {
				p, err := a.svc.UpdateAgeByName(ctx, "Mary", 35)
				return "Updated Person:", p, err
			})
			step("delete-id", func() (string, interface{}, error) {
				p, err := a.svc.DeleteByID(ctx, "111")
				return "Deleted Person:", p, err
			})
			step("delete-name", func() (string, interface{}, error) {
				n, err := a.svc.DeleteByName(ctx, "Mary")
				return "Deleted Many People:", map[string]int64{"deletedCount": n}, err
			})
			step("burritos", func() (string, interface{}, error) {
				p, err := a.svc.QueryBurritoLovers(ctx)
				return "People Who Like Burritos:", p, err
			})
			return errors.Join(failed...)
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		secret  string
		ttl     time.Duration
	)
	c := &cobra.Command{
		Use:         "token",
		Short:       "Mint a bearer token for the write API (HS256, AUTH_JWT_SECRET)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("AUTH_JWT_SECRET")
			}
			tok, err := tokens.Issue(secret, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	c.Flags().StringVar(&subject, "subject", "peoplectl", "token subject")
	c.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to AUTH_JWT_SECRET)")
	c.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return c
}
