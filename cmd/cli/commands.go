package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var playerID string

func init() {
	statsCmd.Flags().StringVar(&playerID, "player", "", "The player id to query")
	statsCmd.MarkFlagRequired("player")
	cardsCmd.Flags().StringVar(&playerID, "player", "", "Optional player id for their collection")
	soloCmd.Flags().StringVar(&playerID, "player", "", "The player id starting the match")
	soloCmd.MarkFlagRequired("player")
	enqueueCmd.Flags().StringVar(&playerID, "player", "", "The player id joining the queue")
	enqueueCmd.MarkFlagRequired("player")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(soloCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the card catalog, or a player's collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/cards"
		if playerID != "" {
			endpoint += "?playerID=" + url.QueryEscape(playerID)
		}
		return performGetRequest(endpoint)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the trophy leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a player's battle stats, rank and recent matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/stats?playerID=" + url.QueryEscape(playerID))
	},
}

var soloCmd = &cobra.Command{
	Use:   "solo",
	Short: "Start a practice match against the computer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/battle/solo?playerID=" + url.QueryEscape(playerID))
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Join the matchmaking queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/matchmaking/enqueue?playerID=" + url.QueryEscape(playerID))
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
