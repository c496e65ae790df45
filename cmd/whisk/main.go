package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/app"
	"github.com/bradenpan/whisk-ai-prototype/internal/config"
	"github.com/bradenpan/whisk-ai-prototype/internal/logging"
	"github.com/bradenpan/whisk-ai-prototype/internal/planner"
	"github.com/bradenpan/whisk-ai-prototype/internal/recipe"
	"github.com/bradenpan/whisk-ai-prototype/internal/shopping"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer rt.Close()

	if err := runCommand(ctx, rt, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		rt.Close()
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, rt *app.Runtime, name string, args []string) error {
	svc := rt.Service
	d := svc.Defaults()

	switch name {
	case "generate":
		fs := flag.NewFlagSet("generate", flag.ExitOnError)
		count := fs.Int("count", 3, "Number of recipes to generate")
		servings := fs.Int("servings", d.Servings, "Servings per recipe")
		useUp := fs.String("use-up", "", "Ingredients to use up")
		maxMinutes := fs.Int("max-minutes", d.MaxMinutes, "Maximum total cooking minutes (0 for no limit)")
		fs.Parse(args) //nolint:errcheck

		recipes, err := svc.GenerateRecipes(ctx, app.GenerateOptions{
			Count:      *count,
			Servings:   *servings,
			UseUp:      *useUp,
			MaxMinutes: optionalMinutes(*maxMinutes),
		})
		if err != nil {
			return err
		}
		for _, r := range recipes {
			printRecipe(r)
		}

	case "plan":
		fs := flag.NewFlagSet("plan", flag.ExitOnError)
		days := fs.String("days", strings.Join(planner.DaysOfWeek, ","), "Comma separated days to plan")
		favorites := fs.Int("favorites", d.FavoriteCount, "Number of favorites to reuse")
		servings := fs.Int("servings", d.Servings, "Servings per recipe")
		useUp := fs.String("use-up", "", "Ingredients to use up")
		maxMinutes := fs.Int("max-minutes", d.MaxMinutes, "Maximum total cooking minutes (0 for no limit)")
		fs.Parse(args) //nolint:errcheck

		plan, err := svc.AutoPlanWeek(ctx, app.AutoPlanOptions{
			FavoriteCount: *favorites,
			UseUp:         *useUp,
			Servings:      *servings,
			Days:          splitDays(*days),
			MaxMinutes:    optionalMinutes(*maxMinutes),
		})
		if err != nil {
			return err
		}
		printPlan(plan)

	case "week":
		printPlan(svc.Snapshot().Plan)

	case "shopping":
		items, err := svc.BuildShoppingList(ctx)
		if err != nil {
			return err
		}
		printShoppingList(items)

	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		servings := fs.Int("servings", d.Servings, "Servings to scale the recipe to")
		fs.Parse(args) //nolint:errcheck
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: whisk import [-servings N] <url>")
		}
		r, err := svc.ImportRecipe(ctx, fs.Arg(0), *servings)
		if err != nil {
			return err
		}
		fmt.Println("Saved to favorites:")
		printRecipe(r)

	case "metrics-cleanup":
		fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args) //nolint:errcheck
		if rt.MetricsStore == nil {
			return fmt.Errorf("metrics are not recorded with the %s backend", rt.Config.Storage.Backend)
		}
		affected, err := rt.MetricsStore.Cleanup(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %s old metric records.\n", humanize.Comma(affected))

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

func optionalMinutes(m int) *int {
	if m <= 0 {
		return nil
	}
	return &m
}

func splitDays(s string) []string {
	var days []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			days = append(days, d)
		}
	}
	return days
}

func printRecipe(r recipe.Recipe) {
	fmt.Printf("• %s (%d mins, serves %d, %s kcal)\n", r.Title, r.TotalMinutes(), r.Servings, humanize.Ftoa(r.Calories))
	if r.Description != "" {
		fmt.Printf("  %s\n", r.Description)
	}
}

func printPlan(plan planner.WeeklyPlan) {
	fmt.Println("Weekly Meal Plan")
	total := 0
	for _, day := range planner.DaysOfWeek {
		for _, r := range plan[day] {
			fmt.Printf("%-10s %s (%d mins)\n", day, r.Title, r.TotalMinutes())
			total += r.TotalMinutes()
		}
	}
	fmt.Printf("Total cooking: %d mins\n", total)
}

func printShoppingList(items []shopping.Item) {
	groups := shopping.GroupByCategory(items)
	for _, cat := range shopping.SortedCategories(groups) {
		fmt.Printf("\n%s\n", cat)
		for _, item := range groups[cat] {
			mark := "[ ]"
			if item.Checked || item.AlreadyHave {
				mark = "[x]"
			}
			fmt.Printf("  %s %s", mark, item.Name)
			if item.Amount != "" {
				fmt.Printf(" (%s)", item.Amount)
			}
			fmt.Println()
		}
	}
}

func printUsage() {
	fmt.Println("Usage: whisk <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate           Generate new dinner recipes")
	fmt.Println("  plan               Auto-plan the selected days of the week")
	fmt.Println("  week               Show the saved plan")
	fmt.Println("  shopping           Build the shopping list from the plan")
	fmt.Println("  import <url>       Clip a recipe from a web page into favorites")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
