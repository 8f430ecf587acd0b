package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const defaultPassword = "testpassword123"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:3002"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "users":
		usersCmd(apiURL, args)
	case "videos":
		videosCmd(apiURL, args)
	case "device":
		deviceCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Simulator - Development tool for exercising the backend

USAGE:
  simulator <command> [options]

COMMANDS:
  users     Register fake users, each with a filled-in profile
  videos    Seed the video catalogue (needs admin credentials)
  device    Connect a fake push device and print what it receives
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:3002)

EXAMPLES:
  # Register 5 users with profiles
  simulator users --count=5

  # Add 3 sample videos as an admin
  simulator videos --email=admin@example.com --password=secret --count=3

  # Register a user, connect a device and listen on a topic
  simulator device --topic=profile-updates

  # Listen as an existing account
  simulator device --email=me@example.com --password=secret`)
}

func usersCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	count := fs.Int("count", 5, "Number of fake users to create")
	password := fs.String("password", defaultPassword, "Password for every created user")
	fs.Parse(args)

	if *count < 1 {
		fmt.Println("Error: --count must be at least 1")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Printf("Registering %d users...\n\n", *count)

	var created []User
	for i := 0; i < *count; i++ {
		auth, err := client.RegisterUser(fmt.Sprintf("student%d", i+1), *password)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			continue
		}

		if err := client.SaveProfile(auth.Token, sampleProfile(auth.User, i)); err != nil {
			fmt.Printf("Warning: Failed to save profile for %s: %v\n", auth.User.Email, err)
		}

		created = append(created, auth.User)
		fmt.Printf("  [%d/%d] %s\n", i+1, *count, auth.User.Email)
	}

	fmt.Println()
	fmt.Printf("Done! %d users created, all with password: %s\n", len(created), *password)
}

func videosCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("videos", flag.ExitOnError)
	email := fs.String("email", "", "Admin email (required)")
	password := fs.String("password", "", "Admin password (required)")
	count := fs.Int("count", 3, "Number of videos to create")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: --email and --password are required")
		fmt.Println("\nUsage: simulator videos --email=admin@example.com --password=secret [--count=3]")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Print("Logging in... ")
	auth, err := client.Login(*email, *password)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	if auth.User.Role != "admin" {
		fmt.Printf("FAILED\n  Error: %s is not an admin\n", auth.User.Email)
		os.Exit(1)
	}
	fmt.Println("OK")

	for i := 0; i < *count; i++ {
		video, err := client.CreateVideo(auth.Token, sampleVideo(i))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			continue
		}
		fmt.Printf("  [%d/%d] %s (%s)\n", i+1, *count, video.Title, video.ID)
	}
}

func deviceCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("device", flag.ExitOnError)
	email := fs.String("email", "", "Existing account email (a new user is registered when empty)")
	password := fs.String("password", defaultPassword, "Account password")
	topic := fs.String("topic", "", "Topic to subscribe to")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	var auth *AuthResponse
	var err error
	if *email == "" {
		auth, err = client.RegisterUser("device", *password)
	} else {
		auth, err = client.Login(*email, *password)
	}
	if err != nil {
		fmt.Printf("Failed to sign in: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Signed in as %s (%s)\n", auth.User.Email, auth.User.ID)

	device, err := ConnectDevice(apiURL, auth.Token)
	if err != nil {
		fmt.Printf("Failed to connect device: %v\n", err)
		os.Exit(1)
	}
	defer device.Close()
	fmt.Printf("Device token: %s\n", device.Token)

	if err := client.RegisterDevice(auth.Token, device.Token); err != nil {
		fmt.Printf("Failed to register device: %v\n", err)
		os.Exit(1)
	}

	if *topic != "" {
		if err := device.Subscribe(*topic); err != nil {
			fmt.Printf("Failed to subscribe: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Println("Listening for notifications (Ctrl+C to stop)...")
	fmt.Println()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		device.Close()
	}()

	for {
		msg, err := device.Next()
		if err != nil {
			fmt.Println("Connection closed")
			return
		}
		fmt.Println("  " + describe(msg))
	}
}

func sampleProfile(user User, index int) map[string]string {
	provinces := []string{"Jawa Barat", "Jawa Tengah", "Jawa Timur", "Bali", "DKI Jakarta"}
	return map[string]string{
		"name":        user.Name,
		"lastName":    "Simulated",
		"avatar":      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", user.ID),
		"phoneNumber": fmt.Sprintf("0812000%04d", index),
		"provinsi":    provinces[index%len(provinces)],
	}
}

func sampleVideo(index int) Video {
	categories := []string{"Programming", "Design", "Data Science"}
	levels := []string{"Beginner", "Intermediate", "Advanced"}
	return Video{
		Title:            fmt.Sprintf("Sample Course %d", index+1),
		Professor:        "Dr. Simulated",
		Category:         categories[index%len(categories)],
		VideoURL:         fmt.Sprintf("https://videos.example.com/sample-%d.mp4", index+1),
		PosterURL:        fmt.Sprintf("https://images.example.com/sample-%d.png", index+1),
		Description:      "A generated course for local development.",
		SkillLevel:       levels[index%len(levels)],
		Students:         10 * (index + 1),
		Languages:        "English, Indonesian",
		Captions:         index%2 == 0,
		Lectures:         5 + index,
		Duration:         fmt.Sprintf("%dh", 1+index),
		InstructorName:   "Simulated Instructor",
		InstructorRole:   "Lecturer",
		InstructorAvatar: "https://images.example.com/instructor.png",
	}
}
