package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ttpr0/go-hybrid-routing/corridor"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/routing"
	"github.com/ttpr0/go-hybrid-routing/util"
)

var (
	routeMode    string
	csvDelimiter string
	outFile      string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Parse the osm source into the graph store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := OpenStore(config)
		if err != nil {
			return err
		}
		defer st.Close()
		g, err := BuildFromSource(cmd.Context(), config, st, nil)
		if err != nil {
			return err
		}
		return printJSON(graph.CheckHealth(g, config.HealerOptions()))
	},
}

var healCmd = &cobra.Command{
	Use:   "heal",
	Short: "Repair the stored graph topology",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := CreateManager(cmd.Context(), config, nil)
		if err != nil {
			return err
		}
		defer manager.Close()
		report, err := manager.Healer().Heal(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var matchCmd = &cobra.Command{
	Use:   "match [references.json]",
	Short: "Map traffic segments onto graph edges",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := CreateManager(cmd.Context(), config, nil)
		if err != nil {
			return err
		}
		defer manager.Close()
		file := ""
		if len(args) == 1 {
			file = args[0]
		}
		report, err := manager.MatchReferences(cmd.Context(), file)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run a single live traffic update cycle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := CreateManager(cmd.Context(), config, nil)
		if err != nil {
			return err
		}
		defer manager.Close()
		updater := manager.Updater()
		if updater == nil {
			return fmt.Errorf("no traffic feed url configured")
		}
		report, err := updater.RunCycle(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <lon,lat> <lon,lat>",
	Short: "Plan a single route and print it as json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, mode, err := parseRouteArgs(args)
		if err != nil {
			return err
		}
		manager, err := CreateManager(cmd.Context(), config, nil)
		if err != nil {
			return err
		}
		defer manager.Close()
		result, err := manager.Planner().Plan(cmd.Context(), start, end, mode)
		if err != nil {
			return err
		}
		return printJSON(NewRouteResponse(result))
	},
}

var corridorCmd = &cobra.Command{
	Use:   "corridor <points.csv> <lon,lat> <lon,lat>",
	Short: "List the points along a route",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		delimiter := []rune(csvDelimiter)
		if len(delimiter) != 1 {
			return fmt.Errorf("delimiter must be a single character")
		}
		points, err := util.ReadCSVFromFile[corridor.Point](args[0], delimiter[0])
		if err != nil {
			return err
		}
		start, end, mode, err := parseRouteArgs(args[1:])
		if err != nil {
			return err
		}
		manager, err := CreateManager(cmd.Context(), config, nil)
		if err != nil {
			return err
		}
		defer manager.Close()
		_, matches, err := manager.PointsAlongRoute(cmd.Context(), points, start, end, mode)
		if err != nil {
			return err
		}
		return printJSON(CorridorResponse{Matches: matches, Count: len(matches)})
	},
}

func init() {
	routeCmd.Flags().StringVar(&routeMode, "mode", "fastest", "Cost mode (fastest or shortest)")
	corridorCmd.Flags().StringVar(&routeMode, "mode", "fastest", "Cost mode (fastest or shortest)")
	corridorCmd.Flags().StringVar(&csvDelimiter, "delimiter", ";", "CSV field delimiter")

	rootCmd.PersistentFlags().StringVar(&outFile, "out", "", "Write the command result as json to this file instead of stdout")

	rootCmd.AddCommand(buildCmd, healCmd, matchCmd, updateCmd, routeCmd, corridorCmd)
}

func parseRouteArgs(args []string) (geo.Coord, geo.Coord, routing.CostMode, error) {
	start, err := parseCoordArg(args[0])
	if err != nil {
		return geo.Coord{}, geo.Coord{}, 0, err
	}
	end, err := parseCoordArg(args[1])
	if err != nil {
		return geo.Coord{}, geo.Coord{}, 0, err
	}
	mode, err := routing.CostModeFromString(routeMode)
	return start, end, mode, err
}

// Parses "lon,lat".
func parseCoordArg(arg string) (geo.Coord, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 2 {
		return geo.Coord{}, fmt.Errorf("expected lon,lat but got %q", arg)
	}
	values := make([]float64, 2)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geo.Coord{}, fmt.Errorf("expected lon,lat but got %q", arg)
		}
		values[i] = v
	}
	return ParseCoord(values)
}

func printJSON(value any) error {
	if outFile != "" {
		return util.WriteJSONToFile(value, outFile)
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
