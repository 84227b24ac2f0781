package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/leadbasehq/leadbase/server/auth/key"
	"github.com/leadbasehq/leadbase/server/classifier"
	"github.com/leadbasehq/leadbase/server/importer"
	"github.com/leadbasehq/leadbase/server/logger"
	"github.com/leadbasehq/leadbase/server/models"
	"github.com/leadbasehq/leadbase/server/msggate"
	"github.com/leadbasehq/leadbase/server/twilio"
	"github.com/leadbasehq/leadbase/server/work"
	"github.com/leadbasehq/leadbase/shared"
	"github.com/leadbasehq/leadbase/utils"
	"github.com/spf13/viper"
)

var (
	logg     = logger.NewLogger()
	validate = validator.New()

	serverConfig     *shared.ServerConfig
	authKeyPair      *key.KeyPair
	smsClient        *twilio.ClientWrapper
	classifierClient *classifier.Client
	gate             *msggate.Gate
	csvImporter      *importer.Importer
	workerAdapter    *work.WorkerPoolAdapter
	appDataDir       string
)

// Start wires up the record store, job queue, sms transport, classifier
// & http API, then serves until interrupted.
func Start(v *viper.Viper, isDevEnv bool) {
	var err error

	serverConfig = parseServerConfig(v)

	appDataDir, err = dataDirectory(isDevEnv)
	fatalOnError(err)

	err = models.InitializeDb(serverConfig.Sqlite.PassPhrase, appDataDir)
	fatalOnError(err)

	models.ApplyMessagingDefaults(serverConfig.Leadbase.Messaging)

	authKeyPair, err = key.NewKeyPairFromRSAPrivateKeyPem(serverConfig.Leadbase.PrivateKeyPem)
	fatalOnError(err)

	smsClient = twilio.NewClient(serverConfig.Twilio, serverConfig.Leadbase.AppURL, isDevEnv)
	classifierClient = classifier.NewClient(serverConfig.Classifier)
	gate = msggate.NewGate()
	csvImporter = importer.New(nil)

	workerAdapter = work.NewWorkerAdapter(serverConfig.Leadbase.Cron.TimeZone)
	registerJobHandlers(workerAdapter)
	enqueueJobs(workerAdapter)
	workerAdapter.Start()

	err = RegisterValidators(validate)
	fatalOnError(err)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%v", serverConfig.Leadbase.Listener.Port),
		Handler:      router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logg.Infof("Leadbase server is listening on port:%v...", serverConfig.Leadbase.Listener.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal(err)
		}
	}()

	waitForShutdown(srv)
}

func router() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware, initialContextMiddleware)

	router.HandleFunc("/login", logIn).Methods("POST")
	router.HandleFunc("/.well-known/jwks.json", jwks).Methods("GET")
	router.HandleFunc("/webhooks/sms", smsWebhook).Methods("POST")

	adminRouter := router.PathPrefix("/users").Subrouter()
	adminRouter.Use(adminRouteMiddleware)
	adminRouter.HandleFunc("", createUser).Methods("POST")

	userRouter := router.PathPrefix("/users/{id:[0-9]+}").Subrouter()
	userRouter.Use(protectedRouteMiddleware)
	userRouter.HandleFunc("", findUser).Methods("GET")
	userRouter.HandleFunc("", updateUser).Methods("PATCH")
	userRouter.HandleFunc("", deleteUser).Methods("DELETE")
	userRouter.HandleFunc("/message-settings", findMessageSettings).Methods("GET")
	userRouter.HandleFunc("/message-settings", updateMessageSettings).Methods("PUT")
	userRouter.HandleFunc("/can-send", canSend).Methods("GET")

	workspaceRouter := router.PathPrefix("/workspaces/{wid:[0-9]+}").Subrouter()
	workspaceRouter.Use(workspaceRouteMiddleware)
	workspaceRouter.HandleFunc("/contacts", fetchContacts).Methods("GET")
	workspaceRouter.HandleFunc("/contacts", createContact).Methods("POST")
	workspaceRouter.HandleFunc("/contacts/{id:[0-9]+}", findContact).Methods("GET")
	workspaceRouter.HandleFunc("/contacts/{id:[0-9]+}/messages", threadMessages).Methods("GET")
	workspaceRouter.HandleFunc("/contacts/{id:[0-9]+}/messages", sendMessage).Methods("POST")
	workspaceRouter.HandleFunc("/properties", fetchProperties).Methods("GET")
	workspaceRouter.HandleFunc("/properties/{id:[0-9]+}", findProperty).Methods("GET")
	workspaceRouter.HandleFunc("/properties/{id:[0-9]+}/status", updatePropertyStatus).Methods("PATCH")
	workspaceRouter.HandleFunc("/tags", fetchTags).Methods("GET")
	workspaceRouter.HandleFunc("/imports", createImport).Methods("POST")
	workspaceRouter.HandleFunc("/imports/{id:[0-9]+}", findImport).Methods("GET")
	workspaceRouter.HandleFunc("/stats", workspaceStats).Methods("GET")

	return router
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func parseServerConfig(v *viper.Viper) *shared.ServerConfig {
	config := shared.ServerConfig{}

	err := v.Unmarshal(&config)
	fatalOnError(err)

	err = validate.Struct(config)
	fatalOnError(err)

	return &config
}

func dataDirectory(isDevEnv bool) (string, error) {
	rootDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if isDevEnv {
		rootDir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	dataDir := filepath.Join(rootDir, ".leadbase")
	err = utils.CreateDirIfNotExist(dataDir)
	if err != nil {
		return "", err
	}

	err = utils.CreateDirIfNotExist(filepath.Join(dataDir, "uploads"))
	if err != nil {
		return "", err
	}

	return dataDir, nil
}

func waitForShutdown(srv *http.Server) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	<-signalChan

	logg.Info("Shutting down leadbase server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workerAdapter.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logg.Error(err)
	}
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
