/*
Copyright © 2018 the EnKFPrep authors.
This file is part of EnKFPrep.

EnKFPrep is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EnKFPrep is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EnKFPrep.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package enkfutil contains the command-line interface and configuration
// handling for the EnKF input preparation tools.
package enkfutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/enkfprep"
	"github.com/spatialmodel/enkfprep/grca"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// options are the configuration options available to EnKFPrep.
var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of the progress messages that are
              printed: one of debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "quiet",
			usage: `
              quiet turns off progress messages.`,
			shorthand:  "q",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the EnKF input folder the files are written to.
              It must already exist. It can contain environment variables.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{icCmd.Flags(), bdyCmd.Flags(), obsCmd.Flags()},
		},
		{
			name: "IC.Prefix",
			usage: `
              IC.Prefix is the HGS problem prefix of the realizations whose
              heads are used as initial conditions.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{icCmd.Flags()},
		},
		{
			name: "IC.InputDirs",
			usage: `
              IC.InputDirs are the folders holding the binary head output of the
              realizations. They can contain environment variables.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{icCmd.Flags()},
		},
		{
			name: "IC.IndexPattern",
			usage: `
              IC.IndexPattern is a glob pattern matching the output index at
              the end of the head file names.`,
			defaultVal: enkfprep.DefaultIndexPattern,
			flagsets:   []*pflag.FlagSet{icCmd.Flags()},
		},
		{
			name: "BC.Files",
			usage: `
              BC.Files are the flux boundary variables and the files holding their
              time series, as a list of name=path entries. The order of the entries
              is the order of the columns in the output. Paths can contain
              environment variables.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{bdyCmd.Flags()},
		},
		{
			name: "BC.Filename",
			usage: `
              BC.Filename is the name of the boundary condition file. In stochastic
              mode a five-digit timestep number is appended to it.`,
			defaultVal: enkfprep.DefaultBdyFile,
			flagsets:   []*pflag.FlagSet{bdyCmd.Flags()},
		},
		{
			name: "BC.Mode",
			usage: `
              BC.Mode is either 'deterministic', where all realizations receive the
              same boundary conditions, or 'stochastic', where the boundary
              conditions of each realization are perturbed independently.`,
			defaultVal: "deterministic",
			flagsets:   []*pflag.FlagSet{bdyCmd.Flags()},
		},
		{
			name: "BC.NReal",
			usage: `
              BC.NReal is the number of realizations (stochastic mode only).`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{bdyCmd.Flags()},
		},
		{
			name: "BC.ScaleFactors",
			usage: `
              BC.ScaleFactors are the half-widths of the uniform multiplicative
              perturbation of each boundary variable (stochastic mode only),
              for example {"precip.inc":0.3,"pet.inc":0.1}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{bdyCmd.Flags()},
		},
		{
			name: "BC.DefaultScaleFactor",
			usage: `
              BC.DefaultScaleFactor is the perturbation half-width of variables
              without an entry in BC.ScaleFactors. If it is zero every variable
              needs an explicit scale factor.`,
			defaultVal: enkfprep.DefaultScaleFactor,
			flagsets:   []*pflag.FlagSet{bdyCmd.Flags()},
		},
		{
			name: "BC.Seed",
			usage: `
              BC.Seed is the seed of the random perturbations. If it is zero, the
              current time is used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{bdyCmd.Flags()},
		},
		{
			name: "Obs.Filename",
			usage: `
              Obs.Filename is the name of the observation file.`,
			defaultVal: enkfprep.DefaultObsFile,
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "Obs.StdErr",
			usage: `
              Obs.StdErr is the observation error of wells that do not specify their
              own. If it is empty, every well must specify an error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "Obs.Missing",
			usage: `
              Obs.Missing is the value written for missing observations. If it is
              empty, missing observations are written as nan. Values larger than
              10,000 are treated as missing by the EnKF solver.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "Obs.Start",
			usage: `
              Obs.Start is the first time of the observation period, e.g. 2017-05-01.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "Obs.End",
			usage: `
              Obs.End is the last time of the observation period, e.g. 2017-12-31.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "Obs.Frequency",
			usage: `
              Obs.Frequency is the sampling frequency of the observations, as an
              offset alias such as D, 12H or M (month end).`,
			defaultVal: "D",
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "Obs.Header",
			usage: `
              Obs.Header is the index of the column name row of the Kisters CSV
              files; it and all rows before it are skipped.`,
			defaultVal: enkfprep.DefaultKisterHeader,
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "Obs.OpenLoop",
			usage: `
              Obs.OpenLoop ignores the well data and writes only missing values,
              for open loop runs of the EnKF. It requires Obs.Missing.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{obsCmd.Flags()},
		},
		{
			name: "GRCA.RootFolder",
			usage: `
              GRCA.RootFolder is the folder holding the GRCA well archive. It can
              contain environment variables.`,
			defaultVal: "${HOME}/Data/HGS/GRCA",
			flagsets:   []*pflag.FlagSet{grcaCmd.PersistentFlags()},
		},
		{
			name: "GRCA.MetadataFile",
			usage: `
              GRCA.MetadataFile is the well attribute table. If it is empty,
              metadata.shp in the data folder is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{grcaConvertCmd.Flags()},
		},
		{
			name: "GRCA.StartYear",
			usage: `
              GRCA.StartYear is the first year of the well time series.`,
			defaultVal: grca.DefaultPeriod.Start,
			flagsets:   []*pflag.FlagSet{grcaCmd.PersistentFlags()},
		},
		{
			name: "GRCA.EndYear",
			usage: `
              GRCA.EndYear is the year after the last year of the well time series.`,
			defaultVal: grca.DefaultPeriod.End,
			flagsets:   []*pflag.FlagSet{grcaCmd.PersistentFlags()},
		},
		{
			name: "GRCA.Well",
			usage: `
              GRCA.Well selects a single well, e.g. W347-3. If it is empty all
              wells are shown.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{grcaShowCmd.Flags()},
		},
		{
			name: "GRCA.Climatology",
			usage: `
              GRCA.Climatology shows the monthly climatology instead of the
              time series.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{grcaShowCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("ENKFPREP")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(icCmd)
	Root.AddCommand(bdyCmd)
	Root.AddCommand(obsCmd)
	Root.AddCommand(grcaCmd)
	grcaCmd.AddCommand(grcaConvertCmd)
	grcaCmd.AddCommand(grcaShowCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up the progress messages.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("enkfutil: problem reading configuration file: %v", err)
		}
	}
	return setLogger(Cfg)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "enkfprep",
	Short: "Prepare input files for HGS ensemble Kalman filter runs.",
	Long: `EnKFPrep prepares the input files of the ensemble Kalman filter (EnKF) data
assimilation system for HydroGeoSphere (HGS) models: initial conditions from an
ensemble of model runs, flux boundary conditions and observation well data.
It also converts the GRCA observation well archive to NetCDF.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ENKFPREP_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
	SilenceErrors:     true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of EnKFPrep.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("EnKFPrep v%s\n", enkfprep.Version)
	},
	DisableAutoGenTag: true,
}

// icCmd writes the EnKF initial condition files.
var icCmd = &cobra.Command{
	Use:   "ic",
	Short: "Write EnKF initial conditions.",
	Long: `ic reads the porous medium and overland flow heads of every realization
in IC.InputDirs and writes them to the EnKF initial condition files
inihead.dat and headolf.dat, with one row per node and one column per realization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := IniConfig(Cfg)
		if err != nil {
			return err
		}
		_, _, err = enkfprep.WriteEnKFIni(*c)
		return err
	},
	DisableAutoGenTag: true,
}

// bdyCmd writes the EnKF boundary condition files.
var bdyCmd = &cobra.Command{
	Use:   "bdy",
	Short: "Write EnKF flux boundary conditions.",
	Long: `bdy reads the time series of the flux boundary conditions in BC.Files and
writes them as EnKF boundary condition files, either as a single deterministic
file or as one file per timestep with independently perturbed values for each
realization.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := BdyConfig(Cfg)
		if err != nil {
			return err
		}
		_, err = enkfprep.WriteEnKFBdy(*c)
		return err
	},
	DisableAutoGenTag: true,
}

// obsCmd writes the EnKF observation file.
var obsCmd = &cobra.Command{
	Use:   "obs",
	Short: "Write the EnKF observation file.",
	Long: `obs loads the observation well data listed in Obs.Wells, samples them onto
a common time axis and writes the EnKF observation file. Obs.Wells can only be
set in a configuration file, as a list of tables with the keys Name, Node,
Error (optional), and either File (a Kisters CSV export) or GRCA (the name of a
well in the GRCA archive).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ObsConfig(Cfg)
		if err != nil {
			return err
		}
		_, err = enkfprep.WriteEnKFObs(*c)
		return err
	},
	DisableAutoGenTag: true,
}

var grcaCmd = &cobra.Command{
	Use:   "grca",
	Short: "Work with the GRCA observation well archive.",
	Long: `grca converts and inspects the Grand River Conservation Authority (GRCA)
observation well archive. Use the subcommands specified below.`,
	DisableAutoGenTag: true,
}

// grcaConvertCmd converts the GRCA spreadsheets to NetCDF.
var grcaConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the GRCA well spreadsheets to NetCDF.",
	Long: `convert loads the spreadsheets and metadata of all wells in the GRCA data
folder, aggregates them to monthly means and writes the monthly time series and
the monthly climatology to the grcaavg folder.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := ConvertOptions(Cfg)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(o.OutDir, 0755); err != nil {
			return fmt.Errorf("enkfutil: creating GRCA output folder: %v", err)
		}
		_, _, err = grca.Convert(*o)
		return err
	},
	DisableAutoGenTag: true,
}

// grcaShowCmd prints a summary of the converted GRCA data.
var grcaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarize the converted GRCA data.",
	Long: `show loads the converted GRCA time series (or climatology) and prints the
metadata and the mean head of each well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadGRCA(Cfg)
		if err != nil {
			return err
		}
		return summarize(cmd.OutOrStdout(), d)
	},
	DisableAutoGenTag: true,
}
