/*
   H89Emu - Heathkit H89/H88 emulator
   Copyright (c) 2022, Alexander Vollschwitz

   This file is part of H89Emu.

   H89Emu is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   H89Emu is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with H89Emu. If not, see <http://www.gnu.org/licenses/>.
*/

// Package run contains the command runners of the h89 CLI.
package run

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// prefix of environment variables for settings
const envPrefix = "H89"

// how long to wait for the control API
const apiTimeout = 30 * time.Second

//
const runnerHelpEpilogue = `- Settings can also be made via environment variables, prefixed with H89_
  and with dashes replaced by underscores, e.g. H89_ADDRESS for --address.

`

//
type setting struct {
	name   string
	target interface{}
}

/*
	Runner is the base of all commands. It wraps a cobra command, and binds
	each setting to a flag and an environment variable via viper. Settings
	are copied into their targets by ParseSettings.
*/
type Runner struct {
	cobra.Command
	//
	Address  string
	LogLevel string
	//
	viper    *viper.Viper
	settings []*setting
}

// NewRunner creates a runner. helpIntro and helpEpilogue frame the flags
// section of the help text.
func NewRunner(use, short, long, helpIntro, helpEpilogue string,
	exec func() error) *Runner {

	r := &Runner{viper: viper.New()}
	r.viper.SetEnvPrefix(envPrefix)
	r.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	r.viper.AutomaticEnv()

	r.Use = use
	r.Short = short
	r.Long = long
	r.SilenceUsage = true
	r.DisableFlagsInUseLine = true
	r.RunE = func(cmd *cobra.Command, args []string) error {
		return exec()
	}

	if helpIntro != "" || helpEpilogue != "" {
		r.SetHelpTemplate(helpIntro + r.HelpTemplate() + "\n" + helpEpilogue)
	}

	return r
}

// AddBaseSettings adds the settings every command has.
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Address, "address", "a", "", "localhost:8889",
		"control API address", false)
	r.AddSetting(&r.LogLevel, "log-level", "", "", "info",
		"log level: trace, debug, info, warn, error", false)
}

/*
	AddSetting adds a setting with a command line flag. env names an extra
	environment variable for the setting, in addition to the automatic one.
	Supported targets are *string, *int, *uint, and *bool. A nil def means
	the zero value.
*/
func (r *Runner) AddSetting(target interface{}, name, short, env string,
	def interface{}, usage string, required bool) {

	flags := r.Flags()

	switch t := target.(type) {
	case *string:
		d, _ := def.(string)
		flags.StringP(name, short, d, usage)
		*t = d
	case *int:
		d, _ := def.(int)
		flags.IntP(name, short, d, usage)
		*t = d
	case *uint:
		d, _ := def.(uint)
		flags.UintP(name, short, d, usage)
		*t = d
	case *bool:
		d, _ := def.(bool)
		flags.BoolP(name, short, d, usage)
		*t = d
	default:
		panic(fmt.Sprintf("unsupported setting type %T for %s", target, name))
	}

	if err := r.viper.BindPFlag(name, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("cannot bind flag %s: %v", name, err))
	}
	if env != "" {
		if err := r.viper.BindEnv(name, env); err != nil {
			panic(fmt.Sprintf("cannot bind env %s: %v", env, err))
		}
	}
	if required {
		if err := r.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("cannot mark flag %s required: %v", name, err))
		}
	}

	r.settings = append(r.settings, &setting{name: name, target: target})
}

// ParseSettings copies the settings from flags and environment into their
// targets, and configures logging.
func (r *Runner) ParseSettings() {

	for _, s := range r.settings {
		switch t := s.target.(type) {
		case *string:
			*t = r.viper.GetString(s.name)
		case *int:
			*t = r.viper.GetInt(s.name)
		case *uint:
			*t = r.viper.GetUint(s.name)
		case *bool:
			*t = r.viper.GetBool(s.name)
		}
	}

	if r.LogLevel != "" {
		level, err := log.ParseLevel(r.LogLevel)
		if err != nil {
			log.Warnf("invalid log level '%s', using info", r.LogLevel)
			level = log.InfoLevel
		}
		log.SetLevel(level)
	}
}

// IsSet tells whether a setting was given on the command line or via
// environment.
func (r *Runner) IsSet(name string) bool {
	if changed(r.Flags().Lookup(name)) {
		return true
	}
	_, ok := os.LookupEnv(envPrefix + "_" +
		strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
	return ok
}

//
func changed(f *pflag.Flag) bool {
	return f != nil && f.Changed
}

/*
	apiCall calls the control API, and returns the response body. Replies
	with a status of 300 and above are turned into errors carrying the reply
	text. Set json to request a JSON reply.
*/
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	req, err := http.NewRequest(method,
		fmt.Sprintf("http://%s%s", r.Address, path), body)
	if err != nil {
		return nil, err
	}
	if json {
		req.Header.Set("Accept", "application/json")
	}

	client := &http.Client{Timeout: apiTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach emulator at %s: %v", r.Address, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		msg, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%s (%d)", strings.TrimSpace(string(msg)),
			resp.StatusCode)
	}

	return resp.Body, nil
}

// printReply copies an API reply to stdout, and closes it
func printReply(resp io.ReadCloser) error {
	defer resp.Close()
	fmt.Println()
	_, err := io.Copy(os.Stdout, resp)
	return err
}

// parseDrive parses a drive given as {card}:{drive}, e.g. h17:0
func parseDrive(spec string) (string, int, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 2 || parts[0] == "" {
		return "", -1, fmt.Errorf(
			"invalid drive '%s', use {card}:{drive}, e.g. h17:0", spec)
	}
	drive, err := strconv.Atoi(parts[1])
	if err != nil || drive < 0 {
		return "", -1, fmt.Errorf("invalid drive number in '%s'", spec)
	}
	return strings.ToLower(parts[0]), drive, nil
}

// GetUserConfirmation asks a yes/no question on the terminal.
func GetUserConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
