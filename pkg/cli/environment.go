/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cli describes the operating environment of the command line
// client: debug verbosity and color output, from env vars or flags.
package cli

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

type EnvSettings struct {
	Debug    bool
	NoColors bool
}

func New() *EnvSettings {
	env := &EnvSettings{}
	env.Debug, _ = strconv.ParseBool(os.Getenv("SOLV_DEBUG"))
	env.NoColors, _ = strconv.ParseBool(os.Getenv("SOLV_NOCOLORS"))
	return env
}

// AddFlags binds the settings to command line flags; flags win over env
// vars.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.BoolVar(&s.NoColors, "nocolor", s.NoColors, "disable colorized output")
}

// EnvVars returns the environment variables the settings read.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"SOLV_DEBUG":    strconv.FormatBool(s.Debug),
		"SOLV_NOCOLORS": strconv.FormatBool(s.NoColors),
	}
}
