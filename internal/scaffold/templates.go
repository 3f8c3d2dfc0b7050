package scaffold

// Templates use [[ ]] tags so GitHub Actions ${{ }} expressions pass through.

const readmeTemplate = `# [[name]]
[[description]]
A [[framework]] project scaffolded for [[language]].

## Development

` + "```sh" + `
[[build]]
[[start]]
` + "```" + `

## Docker

` + "```sh" + `
docker compose up --build
` + "```" + `

The application listens on port [[port]].
`

const composeTemplate = `services:
  app:
    build: .
    ports:
      - "[[port]]:[[containerPort]]"
    restart: unless-stopped
`

var dockerfileTemplates = map[string]string{
	"javascript": `FROM [[image]] AS build
WORKDIR /app
COPY package*.json ./
RUN npm install
COPY . .
RUN [[build]]

FROM nginx:alpine
COPY nginx.conf /etc/nginx/conf.d/default.conf
COPY --from=build /app/[[output]] /usr/share/nginx/html
EXPOSE 80
CMD ["nginx", "-g", "daemon off;"]
`,
	"python": `FROM [[image]]
WORKDIR /app
COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt
COPY . .
EXPOSE [[port]]
CMD [[cmd]]
`,
	"java": `FROM [[image]]
WORKDIR /app
COPY . .
RUN [[build]]
EXPOSE [[port]]
CMD [[cmd]]
`,
}

var workflowTemplates = map[string]string{
	"javascript": `name: CI

on:
  push:
    branches: [ main ]
  pull_request:

jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-node@v4
        with:
          node-version: 20
      - run: npm install
      - run: [[build]]
      - run: docker build -t ${{ github.repository }}:${{ github.sha }} .
`,
	"python": `name: CI

on:
  push:
    branches: [ main ]
  pull_request:

jobs:
  test:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-python@v5
        with:
          python-version: "3.12"
      - run: [[build]]
      - run: pytest
      - run: docker build -t ${{ github.repository }}:${{ github.sha }} .
`,
	"java": `name: CI

on:
  push:
    branches: [ main ]
  pull_request:

jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-java@v4
        with:
          distribution: temurin
          java-version: "17"
      - run: [[build]]
      - run: docker build -t ${{ github.repository }}:${{ github.sha }} .
`,
}

var gitignoreTemplates = map[string]string{
	"javascript": "node_modules/\ndist/\nout/\n.env\n.DS_Store\n",
	"python":     "__pycache__/\n*.pyc\n.venv/\n.env\n.pytest_cache/\n",
	"java":       "target/\nbuild/\n.gradle/\n*.class\n.idea/\n",
}

const nginxTemplate = `server {
    listen 80;
    server_name _;
    root /usr/share/nginx/html;
    index index.html;

    location / {
        try_files $uri $uri/ /index.html;
    }
}
`

const pomTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0"
         xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
         xsi:schemaLocation="http://maven.apache.org/POM/4.0.0 http://maven.apache.org/xsd/maven-4.0.0.xsd">
    <modelVersion>4.0.0</modelVersion>

    <groupId>com.example</groupId>
    <artifactId>[[name]]</artifactId>
    <version>0.1.0</version>

    <properties>
        <java.version>17</java.version>
        <maven.compiler.source>${java.version}</maven.compiler.source>
        <maven.compiler.target>${java.version}</maven.compiler.target>
        <project.build.sourceEncoding>UTF-8</project.build.sourceEncoding>
    </properties>

    <dependencies>
[[dependencies]]    </dependencies>
</project>
`

const gradleTemplate = `plugins {
    id 'io.micronaut.application' version '3.7.2'
}

version = "0.1.0"
group = "com.example"

repositories {
    mavenCentral()
}

dependencies {
[[dependencies]]}

application {
    mainClass.set("com.example.Application")
}

java {
    sourceCompatibility = JavaVersion.toVersion("17")
    targetCompatibility = JavaVersion.toVersion("17")
}
`
