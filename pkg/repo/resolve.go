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

package repo

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// reference schemes
const (
	SchemeRepo  = "repo"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

/*
	Resolve opens the image a reference points to, and returns it together
	with its file name, from which type and compressor can be derived.
	References are either repo://{path}, resolved inside the repository
	directory repo, or http(s) URLs. Repository references must not leave the
	repository.
*/
func Resolve(ref, repo string) (io.ReadCloser, string, error) {

	u, err := url.Parse(ref)
	if err != nil {
		return nil, "", fmt.Errorf("invalid reference '%s': %v", ref, err)
	}

	switch strings.ToLower(u.Scheme) {

	case SchemeRepo:
		if repo == "" {
			return nil, "", fmt.Errorf("no repository configured")
		}
		rel := path.Clean("/" + u.Host + u.Path)
		if rel == "/" {
			return nil, "", fmt.Errorf("empty repository reference")
		}
		file := filepath.Join(repo, filepath.FromSlash(rel))
		src, err := NewFileSource(file)
		if err != nil {
			return nil, "", err
		}
		return src, path.Base(rel), nil

	case SchemeHTTP, SchemeHTTPS:
		src, err := NewHTTPSource(ref)
		if err != nil {
			return nil, "", err
		}
		return src, path.Base(u.Path), nil
	}

	return nil, "", fmt.Errorf("unsupported reference scheme: '%s'", u.Scheme)
}
