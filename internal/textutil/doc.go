// Package textutil provides filename and display helpers for video titles.
package textutil
