package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/nurtureapp/nurture-api/internal/repository"
	"github.com/nurtureapp/nurture-api/internal/security/auth"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "token":
		handleToken(args)
	case "plant":
		handlePlant(args)
	case "search":
		searchCatalog(args)
	case "schema":
		printSchema()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleToken(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: nurture token <mint|who|clear>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "mint":
		mintToken(args[1:])
	case "who":
		whoAmI()
	case "clear":
		clearToken()
	default:
		fmt.Printf("unknown token command: %s\n", subCmd)
	}
}

func handlePlant(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: nurture plant <list|get|delete|water>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listPlants(args[1:])
	case "get":
		getPlant(args[1:])
	case "delete":
		deletePlant(args[1:])
	case "water":
		completeReminder(args[1:])
	default:
		fmt.Printf("unknown plant command: %s\n", subCmd)
	}
}

// Token commands. Minting a local token only works against servers sharing
// the same JWT_SECRET, which is the development setup.
func mintToken(args []string) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	userID := fs.String("user", "", "user id to embed in the token")
	email := fs.String("email", "", "email claim (optional)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")

	fs.Parse(args)

	if *userID == "" {
		fmt.Println("Error: user is required")
		fs.PrintDefaults()
		return
	}

	tm := auth.NewTokenManager(os.Getenv("JWT_SECRET"), os.Getenv("JWT_ISSUER"))
	token, err := tm.GenerateToken(*userID, *email, *ttl)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if err := saveToken(token); err != nil {
		fmt.Printf("Error saving token: %v\n", err)
		return
	}
	fmt.Printf("✓ Token minted for %s (expires in %s)\n", *userID, *ttl)
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("No token stored")
		return
	}
	fmt.Printf("✓ Token present (%s...)\n", token[:20])
}

func clearToken() {
	os.Remove(tokenFile())
	fmt.Println("✓ Token cleared")
}

// Plant commands
func listPlants(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/plants", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&envelope)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREMINDERS\tADDED")
	for _, p := range envelope.Data {
		reminders := 0
		if rs, ok := p["reminders"].([]interface{}); ok {
			reminders = len(rs)
		}
		fmt.Fprintf(w, "%v\t%v\t%d\t%v\n", p["id"], p["name"], reminders, p["addedAt"])
	}
	w.Flush()
}

func getPlant(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: nurture plant get <plant-id>")
		return
	}
	req, _ := http.NewRequest("GET", getAPIURL()+"/plants/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var pretty map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&pretty)
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

func deletePlant(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: nurture plant delete <plant-id>")
		return
	}
	req, _ := http.NewRequest("DELETE", getAPIURL()+"/plants/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		fmt.Println("✓ Plant deleted")
	} else {
		fmt.Printf("✗ Delete failed (status %d)\n", resp.StatusCode)
	}
}

func completeReminder(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: nurture plant water <plant-id> <reminder-id>")
		return
	}
	url := fmt.Sprintf("%s/plants/%s/reminders/%s/complete", getAPIURL(), args[0], args[1])
	req, _ := http.NewRequest("POST", url, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		fmt.Println("✓ Reminder completed")
	} else {
		fmt.Printf("✗ Complete failed (status %d)\n", resp.StatusCode)
	}
}

// Catalog commands
func searchCatalog(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	query := fs.String("q", "", "search query")

	fs.Parse(args)

	if *query == "" {
		fmt.Println("Error: q is required")
		fs.PrintDefaults()
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/search?q="+*query, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&envelope)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMMON NAME\tSCIENTIFIC NAME")
	for _, s := range envelope.Data {
		fmt.Fprintf(w, "%v\t%v\t%v\n", s["id"], s["commonName"], s["scientificNames"])
	}
	w.Flush()
}

func printSchema() {
	fmt.Print(repository.Schema)
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("NURTURE_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.nurture/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.nurture", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Nurture CLI

Usage:
  nurture <command> [options]

Commands:
  token    Development tokens (mint, who, clear)
  plant    Plant operations (list, get, delete, water)
  search   Search the species catalog
  schema   Print the database schema DDL
  help     Show this help message

Environment Variables:
  NURTURE_API    API endpoint (default: http://localhost:8080)
  JWT_SECRET     Signing secret for minted development tokens

Examples:
  nurture token mint -user u-123 -email dev@example.com
  nurture plant list
  nurture plant water <plant-id> <reminder-id>
  nurture search -q monstera
`)
}
