// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

// repairJSON fixes the formatting defects small models commonly produce:
// keys missing their opening quote (`, type":` becomes `, "type":`) and
// trailing commas before a closing bracket. String contents are left alone.
func repairJSON(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+16)
	inString := false

	for i := 0; i < len(src); i++ {
		ch := src[i]

		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(src) {
				i++
				out = append(out, src[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			out = append(out, ch)
		case ',':
			next := skipSpace(src, i+1)
			if next < len(src) && (src[next] == '}' || src[next] == ']') {
				// Trailing comma.
				continue
			}
			out = append(out, ch)
			out, i = repairKey(src, out, i)
		case '{':
			out = append(out, ch)
			out, i = repairKey(src, out, i)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// repairKey looks past the separator at src[i] for an unquoted key that ends
// in `":`. It copies what it consumed to out and returns the last consumed index.
func repairKey(src, out []rune, i int) ([]rune, int) {
	j := skipSpace(src, i+1)
	out = append(out, src[i+1:j]...)
	if j >= len(src) || !isLetter(src[j]) {
		return out, j - 1
	}

	end := j
	for end < len(src) && (isLetter(src[end]) || src[end] == '_' || src[end] == ' ') {
		end++
	}
	if end+1 < len(src) && src[end] == '"' && src[end+1] == ':' {
		key := end
		for key > j && src[key-1] == ' ' {
			key--
		}
		out = append(out, '"')
		out = append(out, src[j:key]...)
		return append(out, '"', ':'), end + 1
	}
	return out, j - 1
}

func skipSpace(src []rune, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\n' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	return i
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
