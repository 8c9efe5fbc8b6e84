package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) post(path string, payload map[string]any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func (c *client) run(path string, payload map[string]any) error {
	status, body, err := c.post(path, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s fallo: status=%d body=%s", path, status, string(body))
	}
	c.print(status, body)
	return nil
}

func main() {
	var (
		baseURL = envOr("GARMINBRIDGE_URL", "http://localhost:8000")
		token   = envOr("GARMINBRIDGE_TOKEN", "")
		out     = envOr("GARMINBRIDGE_OUT", "json")
		timeout = 10 * time.Minute // los rangos largos contra el vendor son lentos
	)

	root := &cobra.Command{
		Use:   "garminbridge",
		Short: "CLI para el servicio de datos de Garmin",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env GARMINBRIDGE_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer de servicio (env GARMINBRIDGE_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: timeout}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL, cl.Token, cl.OutFormat = baseURL, token, out
	}

	// login
	var loginEmail, loginPassword, loginUser string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login contra Garmin (puede pedir MFA)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginEmail == "" || loginPassword == "" || loginUser == "" {
				return fmt.Errorf("--email, --password y --user son requeridos")
			}
			return cl.run("/auth/garmin/login", map[string]any{
				"email":    loginEmail,
				"password": loginPassword,
				"user_id":  loginUser,
			})
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email de la cuenta Garmin")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password de la cuenta Garmin")
	loginCmd.Flags().StringVar(&loginUser, "user", "", "ID de usuario local")

	// resume (segunda fase MFA)
	var resumeState, resumeCode, resumeUser string
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Completar un login con el código MFA",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resumeState == "" || resumeCode == "" || resumeUser == "" {
				return fmt.Errorf("--state, --code y --user son requeridos")
			}
			return cl.run("/auth/garmin/resume_login", map[string]any{
				"client_state": resumeState,
				"mfa_code":     resumeCode,
				"user_id":      resumeUser,
			})
		},
	}
	resumeCmd.Flags().StringVar(&resumeState, "state", "", "client_state devuelto por login")
	resumeCmd.Flags().StringVar(&resumeCode, "code", "", "Código MFA")
	resumeCmd.Flags().StringVar(&resumeUser, "user", "", "ID de usuario local")

	// health
	var hwUser, hwTokens, hwStart, hwEnd string
	var hwMetrics []string
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Traer métricas de salud normalizadas de un rango",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hwUser == "" || hwStart == "" || hwEnd == "" {
				return fmt.Errorf("--user, --start y --end son requeridos")
			}
			payload := map[string]any{
				"user_id":    hwUser,
				"tokens":     hwTokens,
				"start_date": hwStart,
				"end_date":   hwEnd,
			}
			if len(hwMetrics) > 0 {
				payload["metric_types"] = hwMetrics
			}
			return cl.run("/data/health_and_wellness", payload)
		},
	}
	healthCmd.Flags().StringVar(&hwUser, "user", "", "ID de usuario local")
	healthCmd.Flags().StringVar(&hwTokens, "tokens", "", "Blob de tokens de la sesión Garmin")
	healthCmd.Flags().StringVar(&hwStart, "start", "", "Fecha inicial YYYY-MM-DD")
	healthCmd.Flags().StringVar(&hwEnd, "end", "", "Fecha final YYYY-MM-DD")
	healthCmd.Flags().StringSliceVar(&hwMetrics, "metric", nil, "Métricas puntuales (repetible); vacío = set por defecto")

	// activities
	var actUser, actTokens, actStart, actEnd, actType string
	activitiesCmd := &cobra.Command{
		Use:   "activities",
		Short: "Traer actividades y workouts de un rango",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actUser == "" || actStart == "" || actEnd == "" {
				return fmt.Errorf("--user, --start y --end son requeridos")
			}
			return cl.run("/data/activities_and_workouts", map[string]any{
				"user_id":       actUser,
				"tokens":        actTokens,
				"start_date":    actStart,
				"end_date":      actEnd,
				"activity_type": actType,
			})
		},
	}
	activitiesCmd.Flags().StringVar(&actUser, "user", "", "ID de usuario local")
	activitiesCmd.Flags().StringVar(&actTokens, "tokens", "", "Blob de tokens de la sesión Garmin")
	activitiesCmd.Flags().StringVar(&actStart, "start", "", "Fecha inicial YYYY-MM-DD")
	activitiesCmd.Flags().StringVar(&actEnd, "end", "", "Fecha final YYYY-MM-DD")
	activitiesCmd.Flags().StringVar(&actType, "type", "", "Filtrar por tipo de actividad (ej. running)")

	root.AddCommand(loginCmd, resumeCmd, healthCmd, activitiesCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
