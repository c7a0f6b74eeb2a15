package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pairlink/pairlink/internal/auth"
	"github.com/pairlink/pairlink/internal/blob"
	"github.com/pairlink/pairlink/internal/handlers"
	"github.com/pairlink/pairlink/internal/identity"
	"github.com/pairlink/pairlink/internal/middleware"
	"github.com/pairlink/pairlink/internal/presence"
	"github.com/pairlink/pairlink/internal/store"
	"github.com/pairlink/pairlink/internal/store/memstore"
	"github.com/pairlink/pairlink/internal/store/sqlstore"
	"github.com/pairlink/pairlink/internal/ws"
)

var (
	addr      = flag.String("addr", ":8080", "http service address")
	usersFile = flag.String("users", "users.json", "path to the JSON user registry")
	driver    = flag.String("driver", "memory", "message ledger backend: memory, sqlite3 or postgres")
	dsn       = flag.String("dsn", "pairlink.db", "data source name for the sqlite3/postgres ledger")
	uploadDir = flag.String("uploads", "uploads", "directory for attachment blobs")
	secret    = flag.String("secret", "", "session cookie signing secret")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	auth.SetSecret(*secret)

	directory, err := identity.Load(*usersFile)
	if err != nil {
		log.Fatal(err)
	}

	var ledger store.Ledger
	switch *driver {
	case "memory":
		ledger = memstore.New()
	case "sqlite3", "postgres":
		// e.g. -driver postgres -dsn "user=user dbname=pairlink sslmode=disable"
		ledger, err = sqlstore.New(*driver, *dsn)
		if err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown ledger driver %q", *driver)
	}

	blobs, err := blob.NewStore(*uploadDir)
	if err != nil {
		log.Fatal(err)
	}

	// Initialize the relay coordinator
	hub := ws.NewHub(directory, presence.NewRegistry(), ledger)
	go hub.Run()

	// Initialize Handlers
	authHandler := &handlers.AuthHandler{Directory: directory}
	messageHandler := &handlers.MessageHandler{Ledger: ledger}
	fileHandler := &handlers.FileHandler{Blobs: blobs}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	// API Endpoints
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.Handle("/messages", middleware.AuthMiddleware(http.HandlerFunc(messageHandler.GetMessages))).Methods("GET")
	r.Handle("/upload", middleware.AuthMiddleware(http.HandlerFunc(fileHandler.Upload))).Methods("POST")
	r.HandleFunc("/uploads/{id}", fileHandler.Download).Methods("GET")

	// WebSocket Endpoint; connections authenticate via the auth event.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})

	log.Println("Starting server on", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}
