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

// Package enkfprep prepares the input files of the ensemble Kalman filter
// (EnKF) data assimilation system for HydroGeoSphere (HGS) models: initial
// conditions assembled from an ensemble of model runs, deterministic or
// stochastic flux boundary conditions, and observation well time series.
//
// The files are plain text in the fixed layouts read by the EnKF solver.
// Binary HGS output is read by package hgs, and the GRCA observation well
// archive is handled by package grca.
package enkfprep
