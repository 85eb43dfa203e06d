// Package helper provides test doubles, fixtures and shared repository contract checks for the lending module.
package helper
