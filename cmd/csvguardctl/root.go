package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/csvguard/csvguard-backend/internal/editor"
	"github.com/csvguard/csvguard-backend/internal/editor/client"
)

// App wires one editing session for the lifetime of a command.
type App struct {
	configPath string
	session    *editor.Session
}

// consoleNotifier prints session notices to stderr.
type consoleNotifier struct{}

func (consoleNotifier) Notify(n editor.Notice) {
	fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", n.Severity, n.Summary, n.Detail)
}

// projectFile is the JSON document accepted by create and update. Schema and
// rule entries stay raw so unknown attributes reach the allow-list filter.
type projectFile struct {
	Name      string           `json:"nombre_proyecto"`
	TableName string           `json:"nombre_tabla"`
	Schema    []map[string]any `json:"esquemas"`
	Rules     []map[string]any `json:"validaciones"`
}

func (a *App) connect() error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	identity := staticIdentity{name: cfg.User, token: cfg.Token}
	collab := client.New(cfg.APIBaseURL, identity)
	a.session = editor.NewSession(collab, identity, consoleNotifier{})
	return nil
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csvguardctl",
		Short: "Manage validation projects and their CSV datasets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.connect()
		},
	}
	cmd.PersistentFlags().StringVar(&app.configPath, "config", defaultConfigPath(), "path to the YAML config file")
	cmd.AddCommand(
		newListCmd(app),
		newShowCmd(app),
		newCreateCmd(app),
		newUpdateCmd(app),
		newDeleteCmd(app),
		newUploadCmd(app),
		newValidationsCmd(app),
	)
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Run:   app.handleList,
	}
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with its schema, rules and stored dataset",
		Args:  cobra.ExactArgs(1),
		Run:   app.handleShow,
	}
}

func newCreateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <project.json> --csv <dataset.csv>",
		Short: "Create a project from a JSON definition and ingest its CSV dataset",
		Args:  cobra.ExactArgs(1),
		Run:   app.handleCreate,
	}
	cmd.Flags().String("csv", "", "CSV dataset to ingest after creation")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func newUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update <project-id> <project.json>",
		Short: "Update a project from a JSON definition",
		Args:  cobra.ExactArgs(2),
		Run:   app.handleUpdate,
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>...",
		Short: "Delete one or more projects",
		Args:  cobra.MinimumNArgs(1),
		Run:   app.handleDelete,
	}
}

func newUploadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <project-id> <dataset.csv>",
		Short: "Upload a CSV dataset to an existing project",
		Args:  cobra.ExactArgs(2),
		Run:   app.handleUpload,
	}
}

func newValidationsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validations",
		Short: "List the validation rules projects may use",
		Run:   app.handleValidations,
	}
}

func (a *App) handleList(cmd *cobra.Command, args []string) {
	a.session.RefreshProjects(cmd.Context())
	for _, p := range a.session.Projects() {
		fmt.Printf("%d\t%s\t%s\t%s\n", p.ID, p.Name, p.TableName, p.ModifiedBy)
	}
}

func (a *App) handleShow(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	if !a.session.Load(cmd.Context(), id) {
		os.Exit(1)
	}
	out, err := json.MarshalIndent(a.session.Project(), "", "  ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func (a *App) handleCreate(cmd *cobra.Command, args []string) {
	doc, err := readProjectFile(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	csvPath, _ := cmd.Flags().GetString("csv")

	a.session.NewProject(cmd.Context())
	a.session.SetName(doc.Name)
	a.session.SetTableName(doc.TableName)
	a.session.SetSchema(doc.Schema)
	a.session.SetRules(doc.Rules)

	if err := selectFile(a.session.Upload(), csvPath); err != nil {
		os.Exit(1)
	}

	if !a.session.Create(cmd.Context()) {
		os.Exit(1)
	}
	waitForUpload(a.session.Upload())
}

func (a *App) handleUpdate(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	doc, err := readProjectFile(args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if !a.session.Load(cmd.Context(), id) {
		os.Exit(1)
	}
	if doc.Name != "" {
		a.session.SetName(doc.Name)
	}
	if doc.TableName != "" {
		a.session.SetTableName(doc.TableName)
	}
	if doc.Schema != nil {
		a.session.SetSchema(doc.Schema)
	}
	if doc.Rules != nil {
		a.session.SetRules(doc.Rules)
	}
	if !a.session.Update(cmd.Context()) {
		os.Exit(1)
	}
}

func (a *App) handleDelete(cmd *cobra.Command, args []string) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		ids = append(ids, parseID(arg))
	}
	if !a.session.DeleteMany(cmd.Context(), ids) {
		os.Exit(1)
	}
}

func (a *App) handleUpload(cmd *cobra.Command, args []string) {
	id := parseID(args[0])
	pipeline := a.session.Upload()
	if err := selectFile(pipeline, args[1]); err != nil {
		os.Exit(1)
	}
	if err := pipeline.Start(cmd.Context(), id, false); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	waitForUpload(pipeline)
}

func (a *App) handleValidations(cmd *cobra.Command, args []string) {
	a.session.NewProject(cmd.Context())
	for _, name := range a.session.Catalog() {
		fmt.Println(name)
	}
}

func readProjectFile(path string) (*projectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var doc projectFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}
	return &doc, nil
}

func selectFile(pipeline *editor.UploadPipeline, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return err
	}
	mimeType := "application/octet-stream"
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		mimeType = "text/csv"
	}
	return pipeline.Select(filepath.Base(path), mimeType, data)
}

// waitForUpload blocks until the active run reaches a terminal state. The
// progress ramp runs client-side, so a full run takes a few seconds.
func waitForUpload(pipeline *editor.UploadPipeline) {
	done := pipeline.Done()
	if done == nil {
		return
	}
	for {
		select {
		case <-done:
			fmt.Fprintln(os.Stderr)
			if pipeline.State() != editor.StateServerAccepted {
				os.Exit(1)
			}
			return
		case <-time.After(200 * time.Millisecond):
			fmt.Fprintf(os.Stderr, "\ruploading... %d%%", pipeline.Progress())
		}
	}
}

func parseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Printf("Error: invalid project id %q\n", arg)
		os.Exit(1)
	}
	return id
}
